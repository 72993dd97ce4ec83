// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"context"
	"testing"

	"github.com/kraklabs/cartograph/pkg/ports"
)

type fakeGitHost struct {
	changes []ports.FileChange
}

func (f *fakeGitHost) Clone(ctx context.Context, url, ref, destDir string) error { return nil }
func (f *fakeGitHost) HeadSHA(ctx context.Context, repoDir string) (string, error) {
	return "head", nil
}
func (f *fakeGitHost) DiffNameStatus(ctx context.Context, repoDir, baseSHA, headSHA string) ([]ports.FileChange, error) {
	return f.changes, nil
}

func TestDiffBucketsByStatus(t *testing.T) {
	git := &fakeGitHost{changes: []ports.FileChange{
		{Path: "a.go", Status: "A"},
		{Path: "b.go", Status: "M"},
		{Path: "c.go", Status: "D"},
		{OldPath: "old.go", Path: "renamed.go", Status: "R"},
	}}

	set, err := Diff(context.Background(), git, "/repo", "base", "head")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Added) != 2 || set.Added[0] != "a.go" || set.Added[1] != "renamed.go" {
		t.Fatalf("expected a.go and renamed.go added, got %+v", set.Added)
	}
	if len(set.Modified) != 1 || set.Modified[0] != "b.go" {
		t.Fatalf("expected b.go modified, got %+v", set.Modified)
	}
	if len(set.Deleted) != 2 || set.Deleted[0] != "c.go" || set.Deleted[1] != "old.go" {
		t.Fatalf("expected c.go and old.go deleted, got %+v", set.Deleted)
	}
	if set.Count() != 5 {
		t.Fatalf("expected count 5, got %d", set.Count())
	}
}
