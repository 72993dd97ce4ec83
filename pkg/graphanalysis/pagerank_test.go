// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graphanalysis

import (
	"math"
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func entities(ids ...string) []graph.Entity {
	out := make([]graph.Entity, len(ids))
	for i, id := range ids {
		out[i] = graph.Entity{ID: id, Kind: graph.KindFunction, RepoID: "repo1", FilePath: "f.go", Name: id}
	}
	return out
}

func TestComputePageRankEmptyGraph(t *testing.T) {
	if got := ComputePageRank(nil, nil); got != nil {
		t.Fatalf("expected nil for empty graph, got %v", got)
	}
}

func TestComputePageRankSingleNode(t *testing.T) {
	results := ComputePageRank(entities("a"), nil)
	if len(results) != 1 || math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Fatalf("expected single node score 1.0, got %+v", results)
	}
	pct := Percentiles(results)
	if pct["a"] != 100 {
		t.Fatalf("expected single node percentile 100, got %d", pct["a"])
	}
}

// (a) Linear chain PageRank: a -> b -> c (calls). The sink c should have
// the highest score.
func TestComputePageRankLinearChainSinkHighest(t *testing.T) {
	ents := entities("a", "b", "c")
	edges := []graph.Edge{
		{From: "a", To: "b", Kind: graph.EdgeCalls},
		{From: "b", To: "c", Kind: graph.EdgeCalls},
	}
	results := ComputePageRank(ents, edges)
	scoreByID := map[string]float64{}
	for _, r := range results {
		scoreByID[r.EntityID] = r.Score
	}
	if !(scoreByID["c"] > scoreByID["b"] && scoreByID["b"] > scoreByID["a"]) {
		t.Fatalf("expected c > b > a, got %+v", scoreByID)
	}

	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	if math.Abs(sum-3.0) > 0.05 {
		t.Fatalf("expected sum of scores near N=3, got %f", sum)
	}
}

// (b) Symmetric cycle a<->b<->c<->a converges within the iteration cap to
// approximately equal scores.
func TestComputePageRankCyclicConvergence(t *testing.T) {
	ents := entities("a", "b", "c")
	edges := []graph.Edge{
		{From: "a", To: "b", Kind: graph.EdgeCalls},
		{From: "b", To: "c", Kind: graph.EdgeCalls},
		{From: "c", To: "a", Kind: graph.EdgeCalls},
	}
	results := ComputePageRank(ents, edges)
	first := results[0].Score
	for _, r := range results {
		if math.Abs(r.Score-first) > 1e-3 {
			t.Fatalf("expected approximately equal scores in symmetric cycle, got %+v", results)
		}
	}
}

func TestComputePageRankIgnoresUnknownNodeIDs(t *testing.T) {
	ents := entities("a", "b")
	edges := []graph.Edge{
		{From: "a", To: "ghost", Kind: graph.EdgeCalls},
		{From: "ghost", To: "b", Kind: graph.EdgeCalls},
		{From: "a", To: "b", Kind: graph.EdgeCalls},
	}
	results := ComputePageRank(ents, edges)
	if len(results) != 2 {
		t.Fatalf("expected only known nodes scored, got %+v", results)
	}
}

func TestComputePageRankExcludesContainsFromTransitions(t *testing.T) {
	ents := entities("a", "b")
	edges := []graph.Edge{
		{From: "a", To: "b", Kind: graph.EdgeContains},
	}
	results := ComputePageRank(ents, edges)
	// contains has weight 0, so a is treated as dangling and redistributes
	// by teleport - both nodes end up with equal score.
	if math.Abs(results[0].Score-results[1].Score) > 1e-6 {
		t.Fatalf("expected contains edge to not affect transition, got %+v", results)
	}
}

func TestEdgeWeightsOrdering(t *testing.T) {
	w := EdgeWeights
	if !(w[graph.EdgeCalls] > w[graph.EdgeImports] && w[graph.EdgeImports] > w[graph.EdgeReferences] && w[graph.EdgeReferences] > w[graph.EdgeContains]) {
		t.Fatalf("expected calls > imports > references > contains, got %+v", w)
	}
	if w[graph.EdgeContains] != 0 {
		t.Fatalf("expected contains weight 0, got %f", w[graph.EdgeContains])
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		fanIn, fanOut int
		want          graph.RiskLevel
	}{
		{0, 0, graph.RiskNormal},
		{4, 4, graph.RiskNormal},
		{5, 0, graph.RiskMedium},
		{0, 9, graph.RiskMedium},
		{10, 0, graph.RiskHigh},
		{0, 15, graph.RiskHigh},
	}
	for _, c := range cases {
		got := RiskLevel(c.fanIn, c.fanOut, DefaultBlastRadiusThresholds)
		if got != c.want {
			t.Errorf("RiskLevel(%d,%d) = %s, want %s", c.fanIn, c.fanOut, got, c.want)
		}
	}
}

func TestComputeFanCounts(t *testing.T) {
	edges := []graph.Edge{
		{From: "a", To: "b", Kind: graph.EdgeCalls},
		{From: "a", To: "c", Kind: graph.EdgeCalls},
		{From: "b", To: "c", Kind: graph.EdgeCalls},
		{From: "a", To: "b", Kind: graph.EdgeImports}, // not counted
	}
	counts := ComputeFanCounts(edges)
	if counts["a"].FanOut != 2 || counts["a"].FanIn != 0 {
		t.Fatalf("unexpected counts for a: %+v", counts["a"])
	}
	if counts["c"].FanIn != 2 {
		t.Fatalf("unexpected counts for c: %+v", counts["c"])
	}
}
