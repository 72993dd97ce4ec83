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
	"github.com/kraklabs/cartograph/pkg/graph"
)

// tokenBudgetPerTier is a character-count proxy for each tier's model
// token budget, bounding how many entities one batch prompt packs in.
// Premium models tolerate the largest batch since they are dispatched
// least often.
var tokenBudgetPerTier = map[graph.ModelTier]int{
	graph.TierFast:     12000,
	graph.TierStandard: 24000,
	graph.TierPremium:  48000,
}

// BatchEntry pairs an entity with its assembled context for batching.
type BatchEntry struct {
	Entity  graph.Entity
	Context EntityContext
}

// Batch is a tier-homogeneous group of entries sized under that tier's
// token budget.
type Batch struct {
	Tier    graph.ModelTier
	Entries []BatchEntry
}

// BuildBatches groups entries by tier, then packs each tier's entries into
// batches bounded by tokenBudgetPerTier. A single entry that alone exceeds
// the budget still gets its own one-entry batch, which the caller sends
// through the richer single-entity prompt rather than the batch prompt.
func BuildBatches(entries []BatchEntry) []Batch {
	byTier := make(map[graph.ModelTier][]BatchEntry)
	var tierOrder []graph.ModelTier
	for _, e := range entries {
		tier := RouteTier(e.Entity)
		if _, ok := byTier[tier]; !ok {
			tierOrder = append(tierOrder, tier)
		}
		byTier[tier] = append(byTier[tier], e)
	}

	var batches []Batch
	for _, tier := range tierOrder {
		budget := tokenBudgetPerTier[tier]
		if budget == 0 {
			budget = tokenBudgetPerTier[graph.TierFast]
		}

		var current []BatchEntry
		currentSize := 0
		flush := func() {
			if len(current) > 0 {
				batches = append(batches, Batch{Tier: tier, Entries: current})
				current = nil
				currentSize = 0
			}
		}
		for _, e := range byTier[tier] {
			size := entrySize(e)
			if currentSize+size > budget && len(current) > 0 {
				flush()
			}
			current = append(current, e)
			currentSize += size
		}
		flush()
	}
	return batches
}

func entrySize(e BatchEntry) int {
	return len(e.Entity.Body) + len(e.Context.Summarize()) + 200
}

// BatchResult is one structured-generation result, decoded and matched
// back to its requesting entity.
type BatchResult struct {
	EntityID             string
	Taxonomy             graph.Taxonomy
	Confidence           float64
	BusinessPurpose      string
	DomainConcepts       []string
	FeatureTag           string
	SemanticTriples      []graph.SemanticTriple
	ComplianceTags       []string
	ArchitecturalPattern string
}

// MatchResults maps a decoded batch response's "results" array back onto
// entries by entityId. Entries with no matching entityId in the response
// come back as missing, to be retried individually.
func MatchResults(entries []BatchEntry, decoded map[string]any) (matched []BatchResult, missing []BatchEntry) {
	raw, _ := decoded["results"].([]any)
	byID := make(map[string]map[string]any, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := obj["entityId"].(string); id != "" {
			byID[id] = obj
		}
	}

	for _, e := range entries {
		obj, ok := byID[e.Entity.ID]
		if !ok {
			missing = append(missing, e)
			continue
		}
		matched = append(matched, decodeResult(e.Entity.ID, obj))
	}
	return matched, missing
}

func decodeResult(entityID string, obj map[string]any) BatchResult {
	r := BatchResult{
		EntityID:             entityID,
		Taxonomy:             graph.Taxonomy(stringField(obj, "taxonomy")),
		Confidence:           floatField(obj, "confidence"),
		BusinessPurpose:      stringField(obj, "businessPurpose"),
		DomainConcepts:       stringSliceField(obj, "domainConcepts"),
		FeatureTag:           stringField(obj, "featureTag"),
		ComplianceTags:       stringSliceField(obj, "complianceTags"),
		ArchitecturalPattern: stringField(obj, "architecturalPattern"),
	}
	if triples, ok := obj["semanticTriples"].([]any); ok {
		for _, t := range triples {
			tm, ok := t.(map[string]any)
			if !ok {
				continue
			}
			r.SemanticTriples = append(r.SemanticTriples, graph.SemanticTriple{
				Subject:   stringField(tm, "subject"),
				Predicate: stringField(tm, "predicate"),
				Object:    stringField(tm, "object"),
			})
		}
	}
	return r
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func floatField(obj map[string]any, key string) float64 {
	f, _ := obj[key].(float64)
	return f
}

func stringSliceField(obj map[string]any, key string) []string {
	raw, _ := obj[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
