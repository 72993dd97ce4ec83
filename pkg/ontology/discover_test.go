// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ontology

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestDiscoverFindsRepeatedTermsAndFeatureAreas(t *testing.T) {
	entities := []graph.Entity{
		{Name: "CreateInvoice", FilePath: "internal/billing/invoice.go", Kind: graph.KindFunction},
		{Name: "UpdateInvoice", FilePath: "internal/billing/invoice.go", Kind: graph.KindFunction},
		{Name: "CancelInvoice", FilePath: "internal/billing/cancel.go", Kind: graph.KindFunction},
		{Name: "SendEmail", FilePath: "internal/notify/email.go", Kind: graph.KindFunction},
	}

	ont := Discover("repo1", entities)
	if !contains(ont.Terms, "invoice") {
		t.Fatalf("expected 'invoice' as a discovered term, got %+v", ont.Terms)
	}
	if !contains(ont.FeatureAreas, "billing") {
		t.Fatalf("expected 'billing' as a discovered feature area, got %+v", ont.FeatureAreas)
	}
	if contains(ont.FeatureAreas, "notify") {
		t.Fatalf("expected single-entity dir 'notify' excluded below minTermCount, got %+v", ont.FeatureAreas)
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
