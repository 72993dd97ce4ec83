// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func levelIndexOf(levels [][]string, id string) int {
	for i, level := range levels {
		for _, lid := range level {
			if lid == id {
				return i
			}
		}
	}
	return -1
}

func TestLevelsOrdersCalleesBeforeCallers(t *testing.T) {
	ents := []graph.Entity{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []graph.Edge{
		{From: "a", To: "b", Kind: graph.EdgeCalls},
		{From: "b", To: "c", Kind: graph.EdgeCalls},
	}
	levels := Levels(ents, edges)

	if levelIndexOf(levels, "c") >= levelIndexOf(levels, "b") {
		t.Fatalf("expected c before b, got levels %+v", levels)
	}
	if levelIndexOf(levels, "b") >= levelIndexOf(levels, "a") {
		t.Fatalf("expected b before a, got levels %+v", levels)
	}
}

func TestLevelsBreaksCyclesAtLowestID(t *testing.T) {
	ents := []graph.Entity{{ID: "x"}, {ID: "y"}}
	edges := []graph.Edge{
		{From: "x", To: "y", Kind: graph.EdgeCalls},
		{From: "y", To: "x", Kind: graph.EdgeCalls},
	}
	levels := Levels(ents, edges)

	var total int
	for _, l := range levels {
		total += len(l)
	}
	if total != 2 {
		t.Fatalf("expected both cyclic entities to appear exactly once, got levels %+v", levels)
	}
	if levels[0][0] != "x" {
		t.Fatalf("expected cycle broken at lowest ID 'x' first, got %+v", levels)
	}
}

func TestLevelsIgnoresContainsEdges(t *testing.T) {
	ents := []graph.Entity{{ID: "parent"}, {ID: "child"}}
	edges := []graph.Edge{
		{From: "parent", To: "child", Kind: graph.EdgeContains},
	}
	levels := Levels(ents, edges)
	if len(levels) != 1 || len(levels[0]) != 2 {
		t.Fatalf("expected contains edges not to create dependency levels, got %+v", levels)
	}
}
