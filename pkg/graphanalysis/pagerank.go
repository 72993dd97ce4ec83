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

// Package graphanalysis computes structural centrality over a repo's
// semantic graph: fan-in/fan-out, risk level, and weighted PageRank. Every
// function here is pure: build an adjacency index once from the arenas in
// pkg/graph, then run a deterministic, order-independent computation over
// it, following pkg/ingestion/resolver.go's pattern of building an index
// once and running read-only passes over it.
package graphanalysis

import (
	"sort"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// EdgeWeights maps an edge kind to its PageRank transition weight. contains
// carries weight 0 so containment structure never contributes to the
// random-walk transition matrix — it is excluded from effective
// transitions entirely.
var EdgeWeights = map[graph.EdgeKind]float64{
	graph.EdgeCalls:      1.0,
	graph.EdgeImports:    0.6,
	graph.EdgeImplements: 0.5,
	graph.EdgeInherits:   0.5,
	graph.EdgeExports:    0.4,
	graph.EdgeReferences: 0.3,
	graph.EdgeContains:   0.0,
}

const (
	damping        = 0.85
	epsilon        = 1e-6
	maxIterations  = 100
)

// PageRankResult is the weighted-PageRank score for one entity ID.
type PageRankResult struct {
	EntityID string
	Score    float64
}

// ComputePageRank runs weighted PageRank over entities/edges and returns a
// score per entity ID. Entities with no edges at all still receive a
// score (the teleport-only steady state). Edges referencing an entity ID
// absent from entities are ignored, per spec. Returned scores are scaled by
// the node count, so they sum to N (a single node scores 1.0).
func ComputePageRank(entities []graph.Entity, edges []graph.Edge) []PageRankResult {
	n := len(entities)
	if n == 0 {
		return nil
	}

	ids := make([]string, n)
	index := make(map[string]int, n)
	for i, e := range entities {
		ids[i] = e.ID
		index[e.ID] = i
	}

	// outWeight[i] = sum of effective (non-zero-weight) outgoing edge
	// weights from node i; out[i] = list of (target index, weight).
	type weightedEdge struct {
		to     int
		weight float64
	}
	out := make([][]weightedEdge, n)
	outWeight := make([]float64, n)

	for _, e := range edges {
		w := EdgeWeights[e.Kind]
		if w <= 0 {
			continue
		}
		from, ok1 := index[e.From]
		to, ok2 := index[e.To]
		if !ok1 || !ok2 {
			continue
		}
		out[from] = append(out[from], weightedEdge{to: to, weight: w})
		outWeight[from] += w
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	teleport := (1 - damping) / float64(n)

	for iter := 0; iter < maxIterations; iter++ {
		next := make([]float64, n)
		for i := range next {
			next[i] = teleport
		}

		// Dangling nodes (no effective outgoing edges) redistribute their
		// entire score by teleport across every node.
		var danglingMass float64
		for i, w := range outWeight {
			if w == 0 {
				danglingMass += scores[i]
			}
		}
		if danglingMass > 0 {
			share := damping * danglingMass / float64(n)
			for i := range next {
				next[i] += share
			}
		}

		for from, edges := range out {
			if outWeight[from] == 0 {
				continue
			}
			contribution := damping * scores[from] / outWeight[from]
			for _, e := range edges {
				next[e.to] += contribution * e.weight
			}
		}

		var delta float64
		for i := range scores {
			d := next[i] - scores[i]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		scores = next
		if delta < epsilon {
			break
		}
	}

	results := make([]PageRankResult, n)
	for i, id := range ids {
		results[i] = PageRankResult{EntityID: id, Score: scores[i] * float64(n)}
	}
	return results
}

// Percentiles converts raw PageRank scores into 0..100 integer percentile
// ranks: the lowest score maps to percentile 0 (or 100 when there is only
// one entity), the highest to 100, ties share the percentile of their
// sorted position.
func Percentiles(results []PageRankResult) map[string]int {
	out := make(map[string]int, len(results))
	if len(results) == 0 {
		return out
	}
	if len(results) == 1 {
		out[results[0].EntityID] = 100
		return out
	}

	sorted := make([]PageRankResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	n := len(sorted)
	for rank, r := range sorted {
		pct := (rank * 100) / (n - 1)
		out[r.EntityID] = pct
	}
	return out
}
