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
	"path/filepath"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// LocalReindexer is the real ports.Reindexer: it stats and parses each
// changed path directly off the repo checkout on disk, the same
// FileInfo-then-CodeParser path LocalPipeline runs over a whole repo, but
// scoped to the small file list pkg/incremental hands it each cycle.
type LocalReindexer struct {
	parser      CodeParser
	maxFileSize int64
	logger      *slog.Logger
}

// NewLocalReindexer builds a LocalReindexer. maxFileSize of 0 falls back to
// the same 1MB default ingestion.DefaultConfig uses. A nil logger defaults
// to slog.Default().
func NewLocalReindexer(parser CodeParser, maxFileSize int64, logger *slog.Logger) *LocalReindexer {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = 1024 * 1024
	}
	return &LocalReindexer{parser: parser, maxFileSize: maxFileSize, logger: logger}
}

var _ ports.Reindexer = (*LocalReindexer)(nil)

// ReindexFiles parses filePaths (relative to repoDir) and returns the
// entities/edges extracted from them, stamped with orgID/repoID/
// indexVersion so pkg/incremental can bulk-upsert the batch without having
// to touch graph.Entity fields itself. A file that no longer exists on disk
// (already deleted by the commit under test) is skipped rather than
// reported as an error — pkg/incremental.Engine already handles deletions
// from the diff's own Deleted list.
func (r *LocalReindexer) ReindexFiles(ctx context.Context, orgID, repoID, indexVersion, repoDir string, filePaths []string) (ports.ReindexBatchResult, error) {
	var result ports.ReindexBatchResult

	var files []FileEntity
	var functions []FunctionEntity
	var types []TypeEntity
	var defines []DefinesEdge
	var definesTypes []DefinesTypeEdge
	var calls []CallsEdge

	for _, relPath := range filePaths {
		select {
		case <-ctx.Done():
			return ports.ReindexBatchResult{}, ctx.Err()
		default:
		}

		fullPath := filepath.Join(repoDir, relPath)
		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: stat: %v", relPath, err))
			continue
		}
		if info.IsDir() {
			continue
		}

		fileInfo := FileInfo{
			Path:     relPath,
			FullPath: fullPath,
			Size:     info.Size(),
			Language: detectLanguageFromPath(relPath),
		}
		if fileInfo.Size > r.maxFileSize {
			fileInfo.Quarantined = true
			fileInfo.QuarantineReason = graph.QuarantineFileTooLarge
		}

		parsed, err := r.parser.ParseFile(fileInfo)
		if err != nil {
			r.logger.Error("incremental reindex: parse failed", "path", relPath, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: parse: %v", relPath, err))
			continue
		}
		if parsed == nil {
			continue
		}

		files = append(files, parsed.File)
		functions = append(functions, parsed.Functions...)
		types = append(types, parsed.Types...)
		defines = append(defines, parsed.Defines...)
		definesTypes = append(definesTypes, parsed.DefinesTypes...)
		calls = append(calls, parsed.Calls...)
	}

	result.Entities = BuildGraphEntities(orgID, repoID, indexVersion, files, functions, types)
	result.Edges = BuildGraphEdges(defines, definesTypes, calls)
	return result, nil
}
