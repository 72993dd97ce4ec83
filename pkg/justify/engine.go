// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/llm"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// Progress reports per-level justification counters, for the caller to
// surface as a workflow heartbeat or CLI progress line.
type Progress struct {
	LevelsDone   int
	LevelsTotal  int
	EntitiesDone int
	Reused       int
	Errors       int
}

// Engine drives the full justification pass described in :
// topological levels, per-entity short-circuits, dynamic batching,
// structured generation, staleness reuse, context propagation, and the
// aggregate artifacts (feature aggregation, health report, ADRs).
type Engine struct {
	graphStore ports.GraphStore
	provider   llm.Provider
	logger     *slog.Logger
}

// NewEngine constructs an Engine. A nil logger defaults to slog.Default().
func NewEngine(graphStore ports.GraphStore, provider llm.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{graphStore: graphStore, provider: provider, logger: logger}
}

// Run justifies every live entity for repoID. calleeChangedSet is nil for
// a full pass; on an incremental cascade, pkg/incremental passes its
// cascade set (the changed entities plus their callers, from
// ComputeCascade) so staleness checking restricts re-justification to
// affected entities.
func (eng *Engine) Run(ctx context.Context, repoID string, calleeChangedSet map[string]bool, heartbeat func(Progress)) (Progress, error) {
	entities, err := eng.graphStore.GetAllEntities(ctx, repoID)
	if err != nil {
		return Progress{}, fmt.Errorf("get entities: %w", err)
	}
	edges, err := eng.graphStore.GetAllEdges(ctx, repoID)
	if err != nil {
		return Progress{}, fmt.Errorf("get edges: %w", err)
	}
	ontology, err := eng.graphStore.GetDomainOntology(ctx, repoID)
	if err != nil {
		return Progress{}, fmt.Errorf("get domain ontology: %w", err)
	}

	live := make([]graph.Entity, 0, len(entities))
	for _, e := range entities {
		if !e.Quarantined {
			live = append(live, e)
		}
	}

	inbound := make(map[string]int)
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeCalls, graph.EdgeImports, graph.EdgeReferences:
			inbound[e.To]++
		}
	}

	byID := make(map[string]graph.Entity, len(live))
	for _, e := range live {
		byID[e.ID] = e
	}

	assembler := NewAssembler(live, edges, nil)
	levels := Levels(live, edges)

	justified := make(map[string]graph.Justification)
	progress := Progress{LevelsTotal: len(levels)}

	for _, level := range levels {
		var toGenerate []BatchEntry

		for _, id := range level {
			e := byID[id]
			bodyHash := graph.BodyHash(e.Body)

			prev, _ := eng.graphStore.GetJustification(ctx, id)
			if !IsStale(prev, bodyHash, calleesOf(edges, id), calleeChangedSet) {
				justified[id] = *prev
				progress.Reused++
				continue
			}

			if IsDeadCode(e, inbound[id]) {
				justified[id] = graph.Justification{
					EntityID:        id,
					Taxonomy:        graph.TaxonomyUtility,
					Confidence:      0.7,
					BusinessPurpose: "No inbound references found; likely dead code.",
					ModelTier:       graph.TierHeuristic,
					QualityFlags:    []string{"dead_code"},
					BodyHash:        bodyHash,
					ValidFrom:       time.Now(),
				}
				progress.EntitiesDone++
				continue
			}

			if h := Classify(e); h != nil {
				justified[id] = graph.Justification{
					EntityID:        id,
					Taxonomy:        h.Taxonomy,
					Confidence:      h.Confidence,
					BusinessPurpose: h.BusinessPurpose,
					FeatureTag:      h.FeatureTag,
					ModelTier:       graph.TierHeuristic,
					BodyHash:        bodyHash,
					ValidFrom:       time.Now(),
				}
				progress.EntitiesDone++
				continue
			}

			toGenerate = append(toGenerate, BatchEntry{Entity: e, Context: assembler.AssembleContext(e, justified)})
		}

		generated, genErr := eng.generate(ctx, toGenerate, ontology)
		if genErr != nil {
			progress.Errors++
			eng.logger.Warn("justify.engine.level.generate_error", "repo_id", repoID, "err", genErr)
		}
		for id, j := range generated {
			justified[id] = j
			progress.EntitiesDone++
		}

		progress.LevelsDone++
		if heartbeat != nil {
			heartbeat(progress)
		}
	}

	PropagateContext(live, edges, justified)

	out := make([]graph.Justification, 0, len(justified))
	for _, j := range justified {
		out = append(out, j)
	}
	if err := eng.graphStore.BulkUpsertJustifications(ctx, out); err != nil {
		return progress, fmt.Errorf("upsert justifications: %w", err)
	}

	aggregations := AggregateFeatures(repoID, live, edges, justified)
	if err := eng.graphStore.PutFeatureAggregations(ctx, aggregations); err != nil {
		return progress, fmt.Errorf("put feature aggregations: %w", err)
	}

	report := BuildHealthReport(repoID, live, justified)
	if err := eng.graphStore.PutHealthReport(ctx, report); err != nil {
		return progress, fmt.Errorf("put health report: %w", err)
	}

	adrs, err := SynthesizeADRs(ctx, eng.provider, repoID, aggregations, justified)
	if err != nil {
		eng.logger.Warn("justify.engine.adr.error", "repo_id", repoID, "err", err)
	} else if len(adrs) > 0 {
		if err := eng.graphStore.PutADRs(ctx, adrs); err != nil {
			return progress, fmt.Errorf("put ADRs: %w", err)
		}
	}

	return progress, nil
}

// generate runs the dynamic batcher and structured generation for entries
// that could not be short-circuited, matching results back to entities
// and retrying any missing ones individually.
func (eng *Engine) generate(ctx context.Context, entries []BatchEntry, ontology *graph.DomainOntology) (map[string]graph.Justification, error) {
	out := make(map[string]graph.Justification, len(entries))
	if len(entries) == 0 {
		return out, nil
	}

	var firstErr error
	for _, batch := range BuildBatches(entries) {
		if len(batch.Entries) == 1 {
			entry := batch.Entries[0]
			j, err := eng.generateSingle(ctx, entry, ontology)
			out[entry.Entity.ID] = j
			if err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}

		messages := BuildBatchMessages(batch.Entries, ontology)
		decoded, err := llm.StructuredChat(ctx, eng.provider, llm.StructuredRequest{
			Messages:   messages,
			Schema:     BatchResultSchema,
			SchemaName: "justification_batch",
		})

		var matched []BatchResult
		missing := batch.Entries
		if err == nil {
			matched, missing = MatchResults(batch.Entries, decoded)
		}

		for _, r := range matched {
			out[r.EntityID] = resultToJustification(r, batch.Tier, batch.Entries)
		}
		for _, entry := range missing {
			j, singleErr := eng.generateSingle(ctx, entry, ontology)
			out[entry.Entity.ID] = j
			if singleErr != nil && firstErr == nil {
				firstErr = singleErr
			}
		}
	}
	return out, firstErr
}

func (eng *Engine) generateSingle(ctx context.Context, entry BatchEntry, ontology *graph.DomainOntology) (graph.Justification, error) {
	messages := BuildSingleMessages(entry.Entity, entry.Context, ontology)
	obj, err := llm.StructuredChat(ctx, eng.provider, llm.StructuredRequest{
		Messages:   messages,
		Schema:     ResultSchema,
		SchemaName: "justification",
	})
	if err != nil {
		return fallbackJustification(entry.Entity, err), err
	}
	r := decodeResult(entry.Entity.ID, obj)
	return resultToJustification(r, RouteTier(entry.Entity), []BatchEntry{entry}), nil
}

func resultToJustification(r BatchResult, tier graph.ModelTier, entries []BatchEntry) graph.Justification {
	var body string
	for _, e := range entries {
		if e.Entity.ID == r.EntityID {
			body = e.Entity.Body
			break
		}
	}
	return graph.Justification{
		EntityID:             r.EntityID,
		Taxonomy:             r.Taxonomy,
		Confidence:           r.Confidence,
		BusinessPurpose:      r.BusinessPurpose,
		DomainConcepts:       r.DomainConcepts,
		FeatureTag:           r.FeatureTag,
		SemanticTriples:      r.SemanticTriples,
		ComplianceTags:       r.ComplianceTags,
		ArchitecturalPattern: r.ArchitecturalPattern,
		ModelTier:            tier,
		ModelUsed:            ModelForTier(tier),
		QualityScore:         scoreQuality(r),
		BodyHash:             graph.BodyHash(body),
		ValidFrom:            time.Now(),
	}
}

func fallbackJustification(e graph.Entity, cause error) graph.Justification {
	return graph.Justification{
		EntityID:        e.ID,
		Taxonomy:        graph.TaxonomyUtility,
		Confidence:      0.3,
		BusinessPurpose: fmt.Sprintf("justification unavailable: %v", cause),
		ModelTier:       RouteTier(e),
		QualityFlags:    []string{"generation_failed"},
		BodyHash:        graph.BodyHash(e.Body),
		ValidFrom:       time.Now(),
	}
}

// scoreQuality computes a coarse quality score from the result's internal
// consistency, recorded as metadata only; it never gates emission.
func scoreQuality(r BatchResult) float64 {
	score := r.Confidence
	if len(r.DomainConcepts) == 0 {
		score -= 0.1
	}
	if r.FeatureTag == "" {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func calleesOf(edges []graph.Edge, entityID string) []string {
	var out []string
	for _, e := range edges {
		if e.From == entityID && (e.Kind == graph.EdgeCalls || e.Kind == graph.EdgeReferences) {
			out = append(out, e.To)
		}
	}
	return out
}
