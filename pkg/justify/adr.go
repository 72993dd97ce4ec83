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
	"sort"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/llm"
)

var adrSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":        map[string]any{"type": "string"},
		"context":      map[string]any{"type": "string"},
		"decision":     map[string]any{"type": "string"},
		"consequences": map[string]any{"type": "string"},
	},
	"required": []any{"title", "context", "decision", "consequences"},
}

// topADRCandidates bounds how many feature aggregations get an ADR: the
// largest groups are presumed to be the architecturally significant ones.
const topADRCandidates = 5

// SynthesizeADRs emits one ADR per top feature aggregation, grounded in
// the justifications of that feature's entry points. Aggregations with no
// entry point are skipped: an ADR needs a concrete "why this exists"
// anchor, not just a cluster of entities.
func SynthesizeADRs(ctx context.Context, provider llm.Provider, repoID string, aggregations []graph.FeatureAggregation, justified map[string]graph.Justification) ([]graph.ADR, error) {
	sorted := append([]graph.FeatureAggregation{}, aggregations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityCount > sorted[j].EntityCount })
	if len(sorted) > topADRCandidates {
		sorted = sorted[:topADRCandidates]
	}

	var adrs []graph.ADR
	for _, agg := range sorted {
		if len(agg.EntryPoints) == 0 {
			continue
		}

		messages := llm.BuildChatMessages(
			"You write concise architectural decision records from observed code structure, not speculation.",
			buildADRPrompt(agg, justified),
		)
		obj, err := llm.StructuredChat(ctx, provider, llm.StructuredRequest{
			Messages:   messages,
			Schema:     adrSchema,
			SchemaName: "adr",
		})
		if err != nil {
			return adrs, fmt.Errorf("synthesize ADR for feature %q: %w", agg.FeatureTag, err)
		}

		adrs = append(adrs, graph.ADR{
			ID:           fmt.Sprintf("adr-%s-%s", repoID, agg.FeatureTag),
			RepoID:       repoID,
			Title:        stringField(obj, "title"),
			Context:      stringField(obj, "context"),
			Decision:     stringField(obj, "decision"),
			Consequences: stringField(obj, "consequences"),
			EntityRefs:   agg.EntryPoints,
			FeatureAreas: []string{agg.FeatureTag},
			GeneratedAt:  time.Now(),
		})
	}
	return adrs, nil
}

func buildADRPrompt(agg graph.FeatureAggregation, justified map[string]graph.Justification) string {
	s := fmt.Sprintf("Feature area %q has %d entities. Entry points:\n", agg.FeatureTag, agg.EntityCount)
	for _, id := range agg.EntryPoints {
		if j, ok := justified[id]; ok {
			s += "- " + j.BusinessPurpose + "\n"
		}
	}
	s += "\nSynthesize one architectural decision record describing why this feature area exists and what tradeoffs it embodies."
	return s
}
