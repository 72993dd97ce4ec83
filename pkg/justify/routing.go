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

import "github.com/kraklabs/cartograph/pkg/graph"

// Percentile thresholds for model-tier routing (Open Question decision
// recorded in DESIGN.md). An entity at or above the
// premium threshold is demoted to standard when it carries normal risk and
// a small blast radius, since a large PageRank score alone can come from a
// widely-imported but behaviorally trivial entity (a constants file, a
// shared type alias).
const (
	premiumPercentile  = 90
	standardPercentile = 60
	lowFanoutBound     = 4
)

// ModelNames maps a tier to the concrete model dispatched for it. These
// are the defaults the mock/ollama/openai/anthropic providers in pkg/llm
// recognize; a deployment can override the map to repoint tiers at
// different models without touching routing logic.
var ModelNames = map[graph.ModelTier]string{
	graph.TierFast:     "gpt-4o-mini",
	graph.TierStandard: "gpt-4o",
	graph.TierPremium:  "claude-3-5-sonnet-20241022",
}

// RouteTier chooses a model tier for e from its structural risk signals.
func RouteTier(e graph.Entity) graph.ModelTier {
	switch {
	case e.PageRankPercentile >= premiumPercentile:
		if e.RiskLevel == graph.RiskNormal && e.FanIn+e.FanOut <= lowFanoutBound {
			return graph.TierStandard
		}
		return graph.TierPremium
	case e.PageRankPercentile >= standardPercentile:
		return graph.TierStandard
	default:
		return graph.TierFast
	}
}

// ModelForTier resolves the concrete model name dispatched for tier,
// falling back to the fast tier's model if tier is unrecognized.
func ModelForTier(tier graph.ModelTier) string {
	if name, ok := ModelNames[tier]; ok {
		return name
	}
	return ModelNames[graph.TierFast]
}
