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

// dependencyKinds are the edge kinds a topological level depends on.
// contains/exports/implements/inherits describe structure, not "needs to
// be understood first", so they are excluded here even though graphanalysis
// weighs several of them for PageRank.
var dependencyKinds = map[graph.EdgeKind]bool{
	graph.EdgeCalls:      true,
	graph.EdgeImports:    true,
	graph.EdgeReferences: true,
}

// Levels computes a topological level ordering over entities, per
// : every level's entities depend only on entities in
// strictly earlier levels, so utilities settle first and entry points
// last. A cycle is broken by repeatedly admitting the lowest remaining
// entity ID into the current level even though one of its dependencies is
// still outstanding, which guarantees termination and a deterministic
// result regardless of traversal order.
func Levels(entities []graph.Entity, edges []graph.Edge) [][]string {
	ids := make([]string, 0, len(entities))
	present := make(map[string]bool, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
		present[e.ID] = true
	}
	sort.Strings(ids)

	deps := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		deps[id] = map[string]bool{}
	}
	for _, e := range edges {
		if !dependencyKinds[e.Kind] || e.From == e.To {
			continue
		}
		if !present[e.From] || !present[e.To] {
			continue
		}
		deps[e.From][e.To] = true
	}

	remaining := make(map[string]bool, len(ids))
	for _, id := range ids {
		remaining[id] = true
	}

	var levels [][]string
	for len(remaining) > 0 {
		var level []string
		for _, id := range ids {
			if !remaining[id] {
				continue
			}
			ready := true
			for dep := range deps[id] {
				if remaining[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			for _, id := range ids {
				if remaining[id] {
					level = append(level, id)
					break
				}
			}
		}
		for _, id := range level {
			remaining[id] = false
		}
		levels = append(levels, level)
	}
	return levels
}
