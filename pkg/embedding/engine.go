// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// subBatchSize is the embed+upsert batch size  names.
const subBatchSize = 10

// filePathBatchSize bounds how many file paths are fetched from the graph
// store per round, keeping one round's entity set small enough to discard
// immediately after its embeddings are upserted (step 1's "never route
// entity bodies through the workflow boundary" applies just as much inside
// one activity as across two).
const filePathBatchSize = 50

// Progress reports per-round embedding counters, for the caller to surface
// as a workflow heartbeat or CLI progress line.
type Progress struct {
	FilesDone       int
	FilesTotal      int
	DocumentsEmbedded int
	Errors          int
}

// Engine drives the embedding pass described in : fetch
// entities for a batch of files, build EmbeddableDocuments, embed them in
// sub-batches, upsert into the vector index, and finally delete orphaned
// vectors once every file has been processed.
type Engine struct {
	graphStore  ports.GraphStore
	vectorIndex ports.VectorIndex
	provider    Provider
	retry       RetryConfig
	logger      *slog.Logger
}

// NewEngine constructs an Engine. A nil logger defaults to slog.Default().
func NewEngine(graphStore ports.GraphStore, vectorIndex ports.VectorIndex, provider Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		graphStore:  graphStore,
		vectorIndex: vectorIndex,
		provider:    provider,
		retry:       DefaultRetryConfig(),
		logger:      logger,
	}
}

// Run embeds every entity for repoID, batched by file path, then deletes
// any vector whose entity no longer exists. heartbeat is called after
// every sub-batch of 10 documents (may be nil).
func (e *Engine) Run(ctx context.Context, repoID string, justifications map[string]graph.Justification, heartbeat func(Progress)) (Progress, error) {
	if err := e.vectorIndex.EnsureIndex(ctx); err != nil {
		return Progress{}, fmt.Errorf("ensure vector index: %w", err)
	}

	paths, err := e.graphStore.GetFilePaths(ctx, repoID)
	if err != nil {
		return Progress{}, fmt.Errorf("list file paths: %w", err)
	}

	progress := Progress{FilesTotal: len(paths)}
	var liveEntityIDs []string

	for start := 0; start < len(paths); start += filePathBatchSize {
		end := start + filePathBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[start:end]

		entities, err := e.graphStore.GetEntitiesByFile(ctx, repoID, batch)
		if err != nil {
			return progress, fmt.Errorf("get entities for %d files: %w", len(batch), err)
		}
		for _, en := range entities {
			if !en.Quarantined {
				liveEntityIDs = append(liveEntityIDs, en.ID)
			}
		}

		docs := BuildDocuments(entities, justifications)
		if err := e.embedAndUpsert(ctx, repoID, docs, &progress, heartbeat); err != nil {
			return progress, err
		}

		progress.FilesDone += len(batch)
		e.logger.Info("embedding.engine.files.progress", "repo_id", repoID, "done", progress.FilesDone, "total", progress.FilesTotal)
	}

	deleted, err := e.vectorIndex.DeleteOrphanEmbeddings(ctx, repoID, liveEntityIDs)
	if err != nil {
		return progress, fmt.Errorf("delete orphan embeddings: %w", err)
	}
	e.logger.Info("embedding.engine.orphans.deleted", "repo_id", repoID, "count", deleted)

	return progress, nil
}

// embedAndUpsert embeds docs in sub-batches of subBatchSize, upserting each
// sub-batch before moving to the next so a mid-run failure loses at most
// one sub-batch's work.
func (e *Engine) embedAndUpsert(ctx context.Context, repoID string, docs []EmbeddableDocument, progress *Progress, heartbeat func(Progress)) error {
	for start := 0; start < len(docs); start += subBatchSize {
		end := start + subBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		sub := docs[start:end]

		embeddings := make([]ports.EntityEmbedding, 0, len(sub))
		for _, doc := range sub {
			vec, err := EmbedWithRetry(ctx, e.provider, doc.TextContent, e.retry)
			if err != nil {
				progress.Errors++
				e.logger.Warn("embedding.engine.embed.error", "entity_id", doc.EntityID, "entity_key", doc.EntityKey, "err", err)
				continue
			}
			embeddings = append(embeddings, ports.EntityEmbedding{EntityID: doc.EntityID, Vector: vec})
		}

		if len(embeddings) > 0 {
			if err := e.vectorIndex.UpsertEmbeddings(ctx, repoID, embeddings); err != nil {
				return fmt.Errorf("upsert %d embeddings: %w", len(embeddings), err)
			}
		}

		progress.DocumentsEmbedded += len(embeddings)
		if heartbeat != nil {
			heartbeat(*progress)
		}
	}
	return nil
}
