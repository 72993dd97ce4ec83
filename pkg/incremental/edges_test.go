// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestRepairEdgesDropsTouchedAndKeepsUntouched(t *testing.T) {
	existing := []graph.Edge{
		{Key: "e1", From: "changed", To: "other", Kind: graph.EdgeCalls},
		{Key: "e2", From: "untouched1", To: "untouched2", Kind: graph.EdgeCalls},
	}
	fresh := []graph.Edge{
		{Key: "e3", From: "changed", To: "newcallee", Kind: graph.EdgeCalls},
	}
	changed := map[string]bool{"changed": true}

	toDelete, toInsert := RepairEdges(existing, fresh, changed, nil)
	if len(toDelete) != 1 || toDelete[0].Key != "e1" {
		t.Fatalf("expected only e1 marked for deletion, got %+v", toDelete)
	}
	if len(toInsert) != 1 || toInsert[0].Key != "e3" {
		t.Fatalf("expected e3 marked for insertion, got %+v", toInsert)
	}
}

func TestRepairEdgesExcludesFreshEdgesDanglingOffRemovedEntities(t *testing.T) {
	fresh := []graph.Edge{
		{Key: "e1", From: "removed", To: "x", Kind: graph.EdgeCalls},
		{Key: "e2", From: "x", To: "y", Kind: graph.EdgeCalls},
	}
	removed := map[string]bool{"removed": true}

	_, toInsert := RepairEdges(nil, fresh, nil, removed)
	if len(toInsert) != 1 || toInsert[0].Key != "e2" {
		t.Fatalf("expected only e2 to survive removed-entity filtering, got %+v", toInsert)
	}
}
