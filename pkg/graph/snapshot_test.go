// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "testing"

func TestSnapshotRoundTrip(t *testing.T) {
	s := Snapshot{
		RepoID:       "repo1",
		IndexVersion: "v2",
		Entities: []CompactEntity{
			{ID: "e1", RepoID: "repo1", Kind: KindFunction, Name: "DoThing", FilePath: "pkg/foo.go"},
		},
		Edges: []CompactEdge{
			{From: "e1", To: "e2", Kind: EdgeCalls},
		},
	}

	payload, checksum, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeSnapshot(payload, checksum)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RepoID != s.RepoID || len(got.Entities) != 1 || len(got.Edges) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSnapshotChecksumMismatchRejected(t *testing.T) {
	s := Snapshot{RepoID: "repo1"}
	payload, _, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeSnapshot(payload, "deadbeef"); err == nil {
		t.Fatalf("expected checksum mismatch to be rejected")
	}
}
