// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package justify

import (
	"testing"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func TestIsStaleNoPriorJustification(t *testing.T) {
	if !IsStale(nil, "h1", nil, nil) {
		t.Fatal("expected no prior justification to be stale")
	}
}

func TestIsStaleBodyChanged(t *testing.T) {
	prev := &graph.Justification{BodyHash: "h1"}
	if !IsStale(prev, "h2", nil, nil) {
		t.Fatal("expected changed body hash to be stale")
	}
}

func TestIsStaleCalleeChanged(t *testing.T) {
	prev := &graph.Justification{BodyHash: "h1"}
	changed := map[string]bool{"callee-1": true}
	if !IsStale(prev, "h1", []string{"callee-1"}, changed) {
		t.Fatal("expected changed callee to mark entity stale")
	}
}

func TestIsStaleReusable(t *testing.T) {
	prev := &graph.Justification{BodyHash: "h1"}
	changed := map[string]bool{"callee-2": true}
	if IsStale(prev, "h1", []string{"callee-1"}, changed) {
		t.Fatal("expected unchanged body and unaffected callees to be reusable")
	}
}
