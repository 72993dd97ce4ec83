// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/kraklabs/cartograph/pkg/ports"
)

// GitClient is the real ports.GitHost: shallow-clone via exec.Command (same
// approach as RepoLoader.cloneGitRepo) and diff/HEAD lookups via
// DeltaDetector, wired together behind the one clone-only surface
// pkg/workflows and pkg/incremental need.
type GitClient struct {
	logger *slog.Logger
}

// NewGitClient returns a GitClient. A nil logger defaults to slog.Default().
func NewGitClient(logger *slog.Logger) *GitClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitClient{logger: logger}
}

var _ ports.GitHost = (*GitClient)(nil)

// Clone checks out url@ref into destDir. ref may be empty, meaning the
// remote's default branch.
func (c *GitClient) Clone(ctx context.Context, url, ref, destDir string) error {
	if err := validateGitURL(url); err != nil {
		return fmt.Errorf("invalid git URL: %w", err)
	}

	args := []string{"clone", "--depth", "1", "--quiet"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, destDir)

	// #nosec G204 - url is validated above to prevent command injection
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	c.logger.Info("git.clone.start", "dest", destDir, "ref", ref)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	c.logger.Info("git.clone.complete", "dest", destDir)
	return nil
}

// DiffNameStatus reports the files that changed between baseSHA and headSHA
// in repoDir, via DeltaDetector.
func (c *GitClient) DiffNameStatus(ctx context.Context, repoDir, baseSHA, headSHA string) ([]ports.FileChange, error) {
	detector := NewDeltaDetector(repoDir, c.logger)
	delta, err := detector.DetectDelta(baseSHA, headSHA)
	if err != nil {
		return nil, fmt.Errorf("detect delta: %w", err)
	}

	changes := make([]ports.FileChange, 0, len(delta.All))
	for _, p := range delta.Added {
		changes = append(changes, ports.FileChange{Path: p, Status: "A"})
	}
	for _, p := range delta.Modified {
		changes = append(changes, ports.FileChange{Path: p, Status: "M"})
	}
	for _, p := range delta.Deleted {
		changes = append(changes, ports.FileChange{Path: p, Status: "D"})
	}
	for oldPath, newPath := range delta.Renamed {
		changes = append(changes, ports.FileChange{Path: newPath, OldPath: oldPath, Status: "R"})
	}
	return changes, nil
}

// HeadSHA resolves HEAD in repoDir to a commit SHA.
func (c *GitClient) HeadSHA(ctx context.Context, repoDir string) (string, error) {
	detector := NewDeltaDetector(repoDir, c.logger)
	sha, err := detector.GetHeadSHA()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return sha, nil
}
