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
	"sort"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// lowConfidenceThreshold flags a justification as a health risk when its
// confidence falls below it.
const lowConfidenceThreshold = 0.5

// AggregateFeatures groups justifications by feature_tag (falling back to
// PropagatedFeatureTag when an entity has no tag of its own), counting
// entities, identifying entry points (entities with an inbound caller
// outside the group), and tallying the taxonomy breakdown.
func AggregateFeatures(repoID string, entities []graph.Entity, edges []graph.Edge, justified map[string]graph.Justification) []graph.FeatureAggregation {
	inboundFrom := make(map[string]map[string]bool)
	for _, e := range edges {
		if e.Kind != graph.EdgeCalls && e.Kind != graph.EdgeReferences {
			continue
		}
		if inboundFrom[e.To] == nil {
			inboundFrom[e.To] = make(map[string]bool)
		}
		inboundFrom[e.To][e.From] = true
	}

	groups := make(map[string][]string)
	for id, j := range justified {
		tag := j.FeatureTag
		if tag == "" {
			tag = j.PropagatedFeatureTag
		}
		if tag == "" {
			continue
		}
		groups[tag] = append(groups[tag], id)
	}

	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := make([]graph.FeatureAggregation, 0, len(tags))
	for _, tag := range tags {
		ids := groups[tag]
		sort.Strings(ids)
		inGroup := make(map[string]bool, len(ids))
		for _, id := range ids {
			inGroup[id] = true
		}

		agg := graph.FeatureAggregation{
			RepoID:         repoID,
			FeatureTag:     tag,
			EntityCount:    len(ids),
			TaxonomyCounts: make(map[graph.Taxonomy]int),
		}
		for _, id := range ids {
			agg.TaxonomyCounts[justified[id].Taxonomy]++

			hasExternalCaller := false
			for caller := range inboundFrom[id] {
				if !inGroup[caller] {
					hasExternalCaller = true
					break
				}
			}
			if hasExternalCaller {
				agg.EntryPoints = append(agg.EntryPoints, id)
			}
		}
		sort.Strings(agg.EntryPoints)
		out = append(out, agg)
	}
	return out
}

// BuildHealthReport summarizes risk across a repo's justified entities:
// high-risk entities (by structural blast radius), low-confidence
// justifications, and dead code, plus overall coverage and average
// confidence.
func BuildHealthReport(repoID string, entities []graph.Entity, justified map[string]graph.Justification) graph.HealthReport {
	report := graph.HealthReport{
		RepoID:          repoID,
		CountBySeverity: make(map[string]int),
		GeneratedAt:     time.Now(),
	}

	ids := make([]string, 0, len(entities))
	byID := make(map[string]graph.Entity, len(entities))
	var liveCount int
	for _, e := range entities {
		byID[e.ID] = e
		ids = append(ids, e.ID)
		if !e.Quarantined {
			liveCount++
		}
	}
	sort.Strings(ids)

	var justifiedCount int
	var confidenceSum float64
	for _, id := range ids {
		e := byID[id]
		if e.Quarantined {
			continue
		}
		j, ok := justified[id]
		if !ok {
			continue
		}
		justifiedCount++
		confidenceSum += j.Confidence

		if e.RiskLevel == graph.RiskHigh {
			report.Risks = append(report.Risks, graph.HealthRisk{EntityID: id, Reason: "high_risk", Detail: "fan-in/fan-out blast radius is high"})
			report.CountBySeverity["high_risk"]++
		}
		if j.Confidence < lowConfidenceThreshold {
			report.Risks = append(report.Risks, graph.HealthRisk{EntityID: id, Reason: "low_confidence", Detail: "justification confidence below threshold"})
			report.CountBySeverity["low_confidence"]++
		}
		for _, flag := range j.QualityFlags {
			if flag == "dead_code" {
				report.Risks = append(report.Risks, graph.HealthRisk{EntityID: id, Reason: "dead_code", Detail: "no inbound references"})
				report.CountBySeverity["dead_code"]++
			}
		}
	}

	if justifiedCount > 0 {
		report.AverageConfidence = confidenceSum / float64(justifiedCount)
	}
	if liveCount > 0 {
		report.Coverage = float64(justifiedCount) / float64(liveCount)
	}
	return report
}
