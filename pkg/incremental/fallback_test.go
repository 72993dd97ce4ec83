// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import "testing"

func TestShouldFallbackUsesDefaultWhenThresholdUnset(t *testing.T) {
	if ShouldFallback(FallbackThresholdFiles, 0) {
		t.Fatalf("expected exactly-at-default threshold to not trigger fallback")
	}
	if !ShouldFallback(FallbackThresholdFiles+1, 0) {
		t.Fatalf("expected over-default threshold to trigger fallback")
	}
}

func TestShouldFallbackHonorsExplicitThreshold(t *testing.T) {
	if ShouldFallback(10, 20) {
		t.Fatalf("expected 10 changed files under a threshold of 20 to not fall back")
	}
	if !ShouldFallback(21, 20) {
		t.Fatalf("expected 21 changed files over a threshold of 20 to fall back")
	}
}
