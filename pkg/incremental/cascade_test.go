// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestComputeCascadeWalksCallersUpToMaxDepth(t *testing.T) {
	// grandparent -> parent -> changed
	edges := []graph.Edge{
		{From: "parent", To: "changed", Kind: graph.EdgeCalls},
		{From: "grandparent", To: "parent", Kind: graph.EdgeCalls},
		{From: "greatgrandparent", To: "grandparent", Kind: graph.EdgeCalls},
	}

	set := ComputeCascade(edges, []string{"changed"}, 2)
	if !set["changed"] || !set["parent"] || !set["grandparent"] {
		t.Fatalf("expected changed, parent, and grandparent in cascade set, got %+v", set)
	}
	if set["greatgrandparent"] {
		t.Fatalf("expected greatgrandparent excluded beyond max depth, got %+v", set)
	}
}

func TestComputeCascadeStopsEarlyWhenLevelIsEmpty(t *testing.T) {
	edges := []graph.Edge{
		{From: "parent", To: "changed", Kind: graph.EdgeCalls},
	}
	set := ComputeCascade(edges, []string{"changed"}, 5)
	if len(set) != 2 {
		t.Fatalf("expected cascade to stop once no new callers are found, got %+v", set)
	}
}
