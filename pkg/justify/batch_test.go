// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestBuildBatchesGroupsByTier(t *testing.T) {
	entries := []BatchEntry{
		{Entity: graph.Entity{ID: "fast1", PageRankPercentile: 10}},
		{Entity: graph.Entity{ID: "premium1", PageRankPercentile: 99, RiskLevel: graph.RiskHigh}},
		{Entity: graph.Entity{ID: "fast2", PageRankPercentile: 20}},
	}
	batches := BuildBatches(entries)

	seenTiers := map[graph.ModelTier]int{}
	for _, b := range batches {
		for _, e := range b.Entries {
			if RouteTier(e.Entity) != b.Tier {
				t.Fatalf("entity %s routed to tier %s but placed in batch tier %s", e.Entity.ID, RouteTier(e.Entity), b.Tier)
			}
		}
		seenTiers[b.Tier]++
	}
	if seenTiers[graph.TierFast] == 0 || seenTiers[graph.TierPremium] == 0 {
		t.Fatalf("expected both fast and premium batches, got %+v", batches)
	}
}

func TestMatchResultsSplitsMissingEntries(t *testing.T) {
	entries := []BatchEntry{
		{Entity: graph.Entity{ID: "a"}},
		{Entity: graph.Entity{ID: "b"}},
	}
	decoded := map[string]any{
		"results": []any{
			map[string]any{
				"entityId":        "a",
				"taxonomy":        "UTILITY",
				"confidence":      0.8,
				"businessPurpose": "formats dates",
				"domainConcepts":  []any{"date"},
				"featureTag":      "utility",
			},
		},
	}

	matched, missing := MatchResults(entries, decoded)
	if len(matched) != 1 || matched[0].EntityID != "a" {
		t.Fatalf("expected entity a matched, got %+v", matched)
	}
	if len(missing) != 1 || missing[0].Entity.ID != "b" {
		t.Fatalf("expected entity b reported missing, got %+v", missing)
	}
}
