// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"context"

	"github.com/kraklabs/cartograph/pkg/ports"
)

// ChangeSet is the result of diffing two commits, bucketed by git status.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Changed returns every added or modified path — the set that needs
// reindexing.
func (c ChangeSet) Changed() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	return out
}

// Count is the total file count the fallback guard evaluates.
func (c ChangeSet) Count() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Diff runs a name-status diff between baseSHA and headSHA via the GitHost
// port and buckets the result by change type. A rename is recorded as a
// delete of the old path plus an add of the new one, so downstream steps
// never need to special-case renames.
func Diff(ctx context.Context, git ports.GitHost, repoDir, baseSHA, headSHA string) (ChangeSet, error) {
	changes, err := git.DiffNameStatus(ctx, repoDir, baseSHA, headSHA)
	if err != nil {
		return ChangeSet{}, err
	}

	var set ChangeSet
	for _, c := range changes {
		switch c.Status {
		case "A":
			set.Added = append(set.Added, c.Path)
		case "M":
			set.Modified = append(set.Modified, c.Path)
		case "D":
			set.Deleted = append(set.Deleted, c.Path)
		case "R":
			set.Deleted = append(set.Deleted, c.OldPath)
			set.Added = append(set.Added, c.Path)
		}
	}
	return set, nil
}
