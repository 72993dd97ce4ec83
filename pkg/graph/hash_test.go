// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "testing"

func TestEntityHashDeterministic(t *testing.T) {
	a := EntityHash("repo1", "pkg/foo.go", KindFunction, "DoThing", "func DoThing()")
	b := EntityHash("repo1", "./pkg/foo.go", KindFunction, "DoThing", "func DoThing()")
	if a != b {
		t.Fatalf("expected equal hashes for equivalent paths, got %s != %s", a, b)
	}
}

func TestEntityHashSensitiveToSignature(t *testing.T) {
	a := EntityHash("repo1", "pkg/foo.go", KindFunction, "DoThing", "func DoThing()")
	b := EntityHash("repo1", "pkg/foo.go", KindFunction, "DoThing", "func DoThing(x int)")
	if a == b {
		t.Fatalf("expected different hashes when signature changes")
	}
}

func TestEntityHashOrderIndependentOfSiblings(t *testing.T) {
	// Hashing one entity never depends on any other entity having been
	// hashed first - every call is independent.
	a1 := EntityHash("repo1", "pkg/foo.go", KindFunction, "A", "")
	b1 := EntityHash("repo1", "pkg/foo.go", KindFunction, "B", "")
	b2 := EntityHash("repo1", "pkg/foo.go", KindFunction, "B", "")
	a2 := EntityHash("repo1", "pkg/foo.go", KindFunction, "A", "")
	if a1 != a2 || b1 != b2 {
		t.Fatalf("hashing order must not matter")
	}
}

func TestEdgeHashDeterministic(t *testing.T) {
	a := EdgeHash("entities/1", "entities/2", EdgeCalls)
	b := EdgeHash("entities/1", "entities/2", EdgeCalls)
	if a != b {
		t.Fatalf("expected deterministic edge hash")
	}
	c := EdgeHash("entities/2", "entities/1", EdgeCalls)
	if a == c {
		t.Fatalf("expected direction to matter")
	}
}

func TestBodyHashWhitespaceSensitivity(t *testing.T) {
	// BodyHash is a plain content hash; callers that want whitespace
	// insensitivity normalize the body before calling it.
	h1 := BodyHash("func Foo() {}")
	h2 := BodyHash("func Foo() {}")
	if h1 != h2 {
		t.Fatalf("expected identical body to hash identically")
	}
	if h3 := BodyHash("func Foo()  {}"); h3 == h1 {
		t.Fatalf("expected whitespace-only change to alter the body hash")
	}
}
