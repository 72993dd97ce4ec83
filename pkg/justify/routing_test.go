// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestRouteTier(t *testing.T) {
	cases := []struct {
		name string
		e    graph.Entity
		want graph.ModelTier
	}{
		{"low percentile is fast", graph.Entity{PageRankPercentile: 10}, graph.TierFast},
		{"mid percentile is standard", graph.Entity{PageRankPercentile: 65}, graph.TierStandard},
		{"high percentile high risk is premium", graph.Entity{PageRankPercentile: 95, RiskLevel: graph.RiskHigh}, graph.TierPremium},
		{"high percentile low fanout normal risk demotes to standard", graph.Entity{PageRankPercentile: 95, RiskLevel: graph.RiskNormal, FanIn: 1, FanOut: 1}, graph.TierStandard},
		{"high percentile normal risk but large fanout stays premium", graph.Entity{PageRankPercentile: 95, RiskLevel: graph.RiskNormal, FanIn: 10, FanOut: 10}, graph.TierPremium},
	}
	for _, c := range cases {
		if got := RouteTier(c.e); got != c.want {
			t.Errorf("%s: RouteTier() = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestModelForTierFallsBackToFast(t *testing.T) {
	if got := ModelForTier(graph.ModelTier("unknown")); got != ModelNames[graph.TierFast] {
		t.Fatalf("expected unknown tier to fall back to fast model, got %q", got)
	}
}
