// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestAggregateFeaturesGroupsByTagAndFindsEntryPoints(t *testing.T) {
	ents := []graph.Entity{{ID: "handler"}, {ID: "internal"}, {ID: "external"}}
	edges := []graph.Edge{
		{From: "external", To: "handler", Kind: graph.EdgeCalls},
		{From: "handler", To: "internal", Kind: graph.EdgeCalls},
	}
	justified := map[string]graph.Justification{
		"handler":  {Taxonomy: graph.TaxonomyVertical, FeatureTag: "billing"},
		"internal": {Taxonomy: graph.TaxonomyUtility, FeatureTag: "billing"},
	}

	aggs := AggregateFeatures("repo1", ents, edges, justified)
	if len(aggs) != 1 {
		t.Fatalf("expected one feature aggregation, got %+v", aggs)
	}
	agg := aggs[0]
	if agg.EntityCount != 2 {
		t.Fatalf("expected 2 entities in billing group, got %d", agg.EntityCount)
	}
	if len(agg.EntryPoints) != 1 || agg.EntryPoints[0] != "handler" {
		t.Fatalf("expected handler as the only entry point (caller is outside group), got %+v", agg.EntryPoints)
	}
	if agg.TaxonomyCounts[graph.TaxonomyVertical] != 1 || agg.TaxonomyCounts[graph.TaxonomyUtility] != 1 {
		t.Fatalf("unexpected taxonomy breakdown: %+v", agg.TaxonomyCounts)
	}
}

func TestBuildHealthReportFlagsRisksAndComputesCoverage(t *testing.T) {
	ents := []graph.Entity{
		{ID: "risky", RiskLevel: graph.RiskHigh},
		{ID: "unsure"},
		{ID: "quarantined", Quarantined: true},
	}
	justified := map[string]graph.Justification{
		"risky":  {Confidence: 0.9},
		"unsure": {Confidence: 0.2},
	}

	report := BuildHealthReport("repo1", ents, justified)
	if report.CountBySeverity["high_risk"] != 1 {
		t.Fatalf("expected one high_risk entry, got %+v", report.CountBySeverity)
	}
	if report.CountBySeverity["low_confidence"] != 1 {
		t.Fatalf("expected one low_confidence entry, got %+v", report.CountBySeverity)
	}
	if report.Coverage != 1.0 {
		t.Fatalf("expected coverage 1.0 over the two live entities, got %f", report.Coverage)
	}
}
