// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graphanalysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// PatternEngine runs the two structural heuristics detectPatterns's
// workflow step is grounded on: god-object, a function or method whose
// persisted fan-in or fan-out meets the high blast-radius threshold, and
// circular-dependency-cluster, any strongly connected component of size
// greater than one in the calls-edge graph. Both reuse data the structural
// Engine already computed or can recompute from the same arenas, rather
// than a learned model.
type PatternEngine struct {
	store      ports.GraphStore
	thresholds BlastRadiusThresholds
}

// NewPatternEngine builds a PatternEngine. A zero BlastRadiusThresholds
// falls back to DefaultBlastRadiusThresholds, the same default the
// structural Engine uses, so god-object detection agrees with whatever
// risk_level was last persisted for each entity.
func NewPatternEngine(store ports.GraphStore, thresholds BlastRadiusThresholds) *PatternEngine {
	if thresholds == (BlastRadiusThresholds{}) {
		thresholds = DefaultBlastRadiusThresholds
	}
	return &PatternEngine{store: store, thresholds: thresholds}
}

var _ ports.PatternEngine = (*PatternEngine)(nil)

// DetectPatterns loads the current graph for repoID and returns every
// god-object and circular-dependency-cluster match.
func (p *PatternEngine) DetectPatterns(ctx context.Context, repoID string) ([]ports.DetectedPattern, error) {
	entities, err := p.store.GetAllEntities(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("patterns: load entities: %w", err)
	}
	edges, err := p.store.GetAllEdges(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("patterns: load edges: %w", err)
	}

	var patterns []ports.DetectedPattern
	patterns = append(patterns, detectGodObjects(entities, p.thresholds)...)
	patterns = append(patterns, detectCycles(edges)...)
	return patterns, nil
}

// detectGodObjects flags any function/method whose fan-in or fan-out meets
// the "high" blast-radius threshold — the same bar RiskLevel uses, applied
// directly from fan counts rather than trusting a possibly-stale persisted
// risk_level.
func detectGodObjects(entities []graph.Entity, thresholds BlastRadiusThresholds) []ports.DetectedPattern {
	var patterns []ports.DetectedPattern
	for _, ent := range entities {
		if ent.Kind != graph.KindFunction && ent.Kind != graph.KindMethod {
			continue
		}
		max := ent.FanIn
		if ent.FanOut > max {
			max = ent.FanOut
		}
		if max < thresholds.High {
			continue
		}
		patterns = append(patterns, ports.DetectedPattern{
			Name:        "god-object",
			Description: fmt.Sprintf("%s has fan-in=%d fan-out=%d, at or above the high blast-radius threshold", ent.Name, ent.FanIn, ent.FanOut),
			EntityIDs:   []string{ent.ID},
			Severity:    "high",
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].EntityIDs[0] < patterns[j].EntityIDs[0] })
	return patterns
}

// detectCycles finds every strongly connected component of size > 1 in the
// calls-edge subgraph via Tarjan's algorithm — a cluster of mutually
// calling entities flagged as a circular-dependency-cluster.
func detectCycles(edges []graph.Edge) []ports.DetectedPattern {
	adj := make(map[string][]string)
	nodes := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != graph.EdgeCalls {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		nodes[e.From] = true
		nodes[e.To] = true
	}
	if len(nodes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := &tarjan{
		adj:     adj,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, id := range ids {
		if _, seen := t.index[id]; !seen {
			t.strongconnect(id)
		}
	}

	var patterns []ports.DetectedPattern
	for _, scc := range t.components {
		if len(scc) < 2 {
			continue
		}
		sort.Strings(scc)
		patterns = append(patterns, ports.DetectedPattern{
			Name:        "circular-dependency-cluster",
			Description: fmt.Sprintf("%d entities form a mutual-call cycle", len(scc)),
			EntityIDs:   scc,
			Severity:    "medium",
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].EntityIDs[0] < patterns[j].EntityIDs[0] })
	return patterns
}

// tarjan is a standard iterative-by-recursion Tarjan SCC finder scoped to
// this file; the graph arenas it walks are plain ID-keyed maps (
// redesign flag for cyclic object graphs), never pointer-linked, so
// recursion here only follows string IDs.
type tarjan struct {
	adj        map[string][]string
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	counter    int
	components [][]string
}

func (t *tarjan) strongconnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adj[v] {
		if _, seen := t.index[w]; !seen {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, scc)
	}
}
