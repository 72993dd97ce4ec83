// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestClassifyUtilityByPath(t *testing.T) {
	e := graph.Entity{FilePath: "pkg/util/strings.go", Name: "Reverse"}
	h := Classify(e)
	if h == nil || h.Taxonomy != graph.TaxonomyUtility {
		t.Fatalf("expected utility classification, got %+v", h)
	}
}

func TestClassifyUtilityByNamePrefix(t *testing.T) {
	e := graph.Entity{FilePath: "pkg/core/convert.go", Name: "parseTimestamp"}
	h := Classify(e)
	if h == nil || h.Taxonomy != graph.TaxonomyUtility {
		t.Fatalf("expected utility classification by name prefix, got %+v", h)
	}
}

func TestClassifyVerticalEntryPoint(t *testing.T) {
	e := graph.Entity{FilePath: "cmd/cartograph/main.go", Name: "main"}
	h := Classify(e)
	if h == nil || h.Taxonomy != graph.TaxonomyVertical {
		t.Fatalf("expected vertical classification for main entry point, got %+v", h)
	}
}

func TestClassifyNoMatchReturnsNil(t *testing.T) {
	e := graph.Entity{FilePath: "pkg/billing/invoice.go", Name: "ComputeTax"}
	if h := Classify(e); h != nil {
		t.Fatalf("expected no heuristic match, got %+v", h)
	}
}

func TestIsDeadCode(t *testing.T) {
	if !IsDeadCode(graph.Entity{Exported: false}, 0) {
		t.Fatal("expected unexported entity with no inbound refs to be dead code")
	}
	if IsDeadCode(graph.Entity{Exported: true}, 0) {
		t.Fatal("expected exported entity never to be flagged dead code")
	}
	if IsDeadCode(graph.Entity{Exported: false}, 1) {
		t.Fatal("expected entity with an inbound reference not to be dead code")
	}
}
