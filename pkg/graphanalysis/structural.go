// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graphanalysis

import (
	"context"
	"fmt"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// BlastRadiusThresholds gates risk_level on fan-in/fan-out. Configurable so
// pkg/config can override the defaults, since a large monorepo's normal
// fan-in/fan-out baseline differs from a small repo's.
type BlastRadiusThresholds struct {
	High   int
	Medium int
}

// DefaultBlastRadiusThresholds classifies risk as high if either count
// is >= 10, medium if either is >= 5, else normal.
var DefaultBlastRadiusThresholds = BlastRadiusThresholds{High: 10, Medium: 5}

// RiskLevel classifies an entity's blast radius from its fan-in/fan-out.
func RiskLevel(fanIn, fanOut int, t BlastRadiusThresholds) graph.RiskLevel {
	max := fanIn
	if fanOut > max {
		max = fanOut
	}
	switch {
	case max >= t.High:
		return graph.RiskHigh
	case max >= t.Medium:
		return graph.RiskMedium
	default:
		return graph.RiskNormal
	}
}

// FanCounts is the inbound/outbound calls-edge count for one entity.
type FanCounts struct {
	FanIn  int
	FanOut int
}

// ComputeFanCounts counts inbound/outbound `calls` edges per entity ID.
// Edges of any other kind do not contribute to blast radius.
func ComputeFanCounts(edges []graph.Edge) map[string]FanCounts {
	counts := make(map[string]FanCounts)
	for _, e := range edges {
		if e.Kind != graph.EdgeCalls {
			continue
		}
		from := counts[e.From]
		from.FanOut++
		counts[e.From] = from

		to := counts[e.To]
		to.FanIn++
		counts[e.To] = to
	}
	return counts
}

// Engine recomputes and persists structural centrality for one repo.
type Engine struct {
	store      ports.GraphStore
	thresholds BlastRadiusThresholds
}

func NewEngine(store ports.GraphStore, thresholds BlastRadiusThresholds) *Engine {
	if thresholds == (BlastRadiusThresholds{}) {
		thresholds = DefaultBlastRadiusThresholds
	}
	return &Engine{store: store, thresholds: thresholds}
}

// Run loads every entity/edge for repoID, computes fan-in/fan-out, risk
// level, weighted PageRank, and percentile, then writes the computed
// fields back. The whole pass is order-independent of extraction order:
// it reads a full snapshot and recomputes from scratch every time, never
// incrementally adjusting a prior run's numbers.
func (e *Engine) Run(ctx context.Context, repoID string) error {
	entities, err := e.store.GetAllEntities(ctx, repoID)
	if err != nil {
		return fmt.Errorf("graphanalysis: load entities: %w", err)
	}
	edges, err := e.store.GetAllEdges(ctx, repoID)
	if err != nil {
		return fmt.Errorf("graphanalysis: load edges: %w", err)
	}
	if len(entities) == 0 {
		return nil
	}

	fanCounts := ComputeFanCounts(edges)
	scores := ComputePageRank(entities, edges)
	percentiles := Percentiles(scores)

	scoreByID := make(map[string]float64, len(scores))
	for _, s := range scores {
		scoreByID[s.EntityID] = s.Score
	}

	updates := make([]ports.EntityComputedUpdate, 0, len(entities))
	for _, ent := range entities {
		if ent.Kind != graph.KindFunction && ent.Kind != graph.KindMethod {
			continue
		}
		fc := fanCounts[ent.ID]
		updates = append(updates, ports.EntityComputedUpdate{
			EntityID:           ent.ID,
			FanIn:              fc.FanIn,
			FanOut:             fc.FanOut,
			RiskLevel:          RiskLevel(fc.FanIn, fc.FanOut, e.thresholds),
			PageRank:           scoreByID[ent.ID],
			PageRankPercentile: percentiles[ent.ID],
		})
	}

	if len(updates) == 0 {
		return nil
	}
	return e.store.UpdateComputedFields(ctx, repoID, updates)
}
