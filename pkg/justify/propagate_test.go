// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestPropagateContextUpwardFromCallees(t *testing.T) {
	ents := []graph.Entity{{ID: "caller"}, {ID: "callee1"}, {ID: "callee2"}}
	edges := []graph.Edge{
		{From: "caller", To: "callee1", Kind: graph.EdgeCalls},
		{From: "caller", To: "callee2", Kind: graph.EdgeCalls},
	}
	justified := map[string]graph.Justification{
		"caller":  {EntityID: "caller"},
		"callee1": {EntityID: "callee1", FeatureTag: "billing", DomainConcepts: []string{"invoice"}},
		"callee2": {EntityID: "callee2", FeatureTag: "billing"},
	}

	out := PropagateContext(ents, edges, justified)
	if out["caller"].PropagatedFeatureTag != "billing" {
		t.Fatalf("expected caller to inherit most-frequent callee tag, got %+v", out["caller"])
	}
	if len(out["caller"].PropagatedDomainConcepts) != 1 || out["caller"].PropagatedDomainConcepts[0] != "invoice" {
		t.Fatalf("expected caller to inherit callee domain concepts, got %+v", out["caller"])
	}
}

func TestPropagateContextDownwardFromParent(t *testing.T) {
	ents := []graph.Entity{
		{ID: "class1", Name: "Invoice", Kind: graph.KindClass},
		{ID: "method1", Name: "Total", Kind: graph.KindMethod, Parent: "Invoice"},
	}
	justified := map[string]graph.Justification{
		"class1":  {EntityID: "class1", FeatureTag: "billing"},
		"method1": {EntityID: "method1"},
	}

	out := PropagateContext(ents, nil, justified)
	if out["method1"].PropagatedFeatureTag != "billing" {
		t.Fatalf("expected method to inherit parent's feature tag, got %+v", out["method1"])
	}
}

func TestPropagateContextDoesNotOverrideOwnTag(t *testing.T) {
	ents := []graph.Entity{
		{ID: "class1", Name: "Invoice", Kind: graph.KindClass},
		{ID: "method1", Name: "Total", Kind: graph.KindMethod, Parent: "Invoice"},
	}
	justified := map[string]graph.Justification{
		"class1":  {EntityID: "class1", FeatureTag: "billing"},
		"method1": {EntityID: "method1", FeatureTag: "reporting"},
	}

	out := PropagateContext(ents, nil, justified)
	if out["method1"].FeatureTag != "reporting" || out["method1"].PropagatedFeatureTag != "" {
		t.Fatalf("expected method's own tag to remain authoritative, got %+v", out["method1"])
	}
}
