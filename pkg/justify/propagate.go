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

	"github.com/kraklabs/cartograph/pkg/graph"
)

// PropagateContext fills PropagatedFeatureTag/PropagatedDomainConcepts on
// every justification in justified, per : upward from the
// most-frequent feature tag among an entity's callees (and the union of
// their domain concepts), then downward from an enclosing class to a
// method when the method produced no feature tag of its own. Mutates and
// returns justified.
func PropagateContext(entities []graph.Entity, edges []graph.Edge, justified map[string]graph.Justification) map[string]graph.Justification {
	callees := make(map[string][]string)
	for _, e := range edges {
		if e.Kind == graph.EdgeCalls || e.Kind == graph.EdgeReferences {
			callees[e.From] = append(callees[e.From], e.To)
		}
	}
	byID := make(map[string]graph.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	for id, j := range justified {
		tagCounts := make(map[string]int)
		conceptSet := make(map[string]bool)
		for _, callee := range callees[id] {
			cj, ok := justified[callee]
			if !ok {
				continue
			}
			if cj.FeatureTag != "" {
				tagCounts[cj.FeatureTag]++
			}
			for _, c := range cj.DomainConcepts {
				conceptSet[c] = true
			}
		}
		if len(tagCounts) > 0 {
			j.PropagatedFeatureTag = mostFrequentTag(tagCounts)
		}
		if len(conceptSet) > 0 {
			concepts := make([]string, 0, len(conceptSet))
			for c := range conceptSet {
				concepts = append(concepts, c)
			}
			sort.Strings(concepts)
			j.PropagatedDomainConcepts = concepts
		}
		justified[id] = j
	}

	for id, j := range justified {
		if j.FeatureTag != "" || j.PropagatedFeatureTag != "" {
			continue
		}
		e, ok := byID[id]
		if !ok || e.Kind != graph.KindMethod || e.Parent == "" {
			continue
		}
		for _, parent := range byID {
			if parent.Name != e.Parent || (parent.Kind != graph.KindClass && parent.Kind != graph.KindStruct) {
				continue
			}
			pj, ok := justified[parent.ID]
			if !ok {
				break
			}
			tag := pj.FeatureTag
			if tag == "" {
				tag = pj.PropagatedFeatureTag
			}
			if tag != "" {
				j.PropagatedFeatureTag = tag
				justified[id] = j
			}
			break
		}
	}

	return justified
}

func mostFrequentTag(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best string
	var bestCount int
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}
