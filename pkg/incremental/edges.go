// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import "github.com/kraklabs/cartograph/pkg/graph"

// RepairEdges computes the edge delta for one incremental cycle (
// §4.7 step 5): every existing edge touching a changed or removed entity
// is dropped, and every freshly extracted edge that doesn't dangle off a
// removed entity is inserted in its place. It returns the two sets rather
// than mutating a store so it stays a pure function callers can test and
// compose freely.
func RepairEdges(existing, fresh []graph.Edge, changedEntityIDs, removedEntityIDs map[string]bool) (toDelete, toInsert []graph.Edge) {
	touches := func(e graph.Edge) bool {
		return changedEntityIDs[e.From] || changedEntityIDs[e.To] || removedEntityIDs[e.From] || removedEntityIDs[e.To]
	}

	for _, e := range existing {
		if touches(e) {
			toDelete = append(toDelete, e)
		}
	}
	for _, e := range fresh {
		if removedEntityIDs[e.From] || removedEntityIDs[e.To] {
			continue
		}
		toInsert = append(toInsert, e)
	}
	return toDelete, toInsert
}
