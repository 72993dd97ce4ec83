// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/cartograph/pkg/embedding"
	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/justify"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// Request is the input to one incremental cycle.
type Request struct {
	OrgID             string
	RepoID            string
	RepoDir           string
	BaseSHA           string
	HeadSHA           string
	PushSHA           string
	CommitMessage     string
	WorkflowID        string
	FallbackThreshold int
	CascadeMaxDepth   int
}

// Result reports whether the cycle ran to completion or bailed out to the
// fallback guard.
type Result struct {
	FellBackToFullReindex bool
	Event                 graph.IndexEvent
}

// Engine runs one incremental cycle end to end. Each method
// re-reads what it needs from the ports rather than threading large
// payloads through the call chain — the same payload discipline
// pkg/justify.Engine follows — so the Temporal activity wrapping this
// engine only has to carry repoID and small counters across the workflow
// boundary.
type Engine struct {
	git         ports.GitHost
	graphStore  ports.GraphStore
	vectorIndex ports.VectorIndex
	cache       ports.CacheStore
	reindexer   ports.Reindexer
	embedder    embedding.Provider
	logger      *slog.Logger
}

// NewEngine wires the ports and providers one incremental cycle needs.
func NewEngine(git ports.GitHost, graphStore ports.GraphStore, vectorIndex ports.VectorIndex, cache ports.CacheStore, reindexer ports.Reindexer, embedder embedding.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		git:         git,
		graphStore:  graphStore,
		vectorIndex: vectorIndex,
		cache:       cache,
		reindexer:   reindexer,
		embedder:    embedder,
		logger:      logger,
	}
}

// Run executes one incremental cycle end to end, writing an IndexEvent
// when the cycle completes or falls back to a full reindex. A step that
// returns an error ends the cycle without an event.
func (e *Engine) Run(ctx context.Context, req Request, justifyEngine *justify.Engine) (Result, error) {
	start := time.Now()
	stats := RunStats{CascadeStatus: graph.CascadeSkipped}

	changes, err := Diff(ctx, e.git, req.RepoDir, req.BaseSHA, req.HeadSHA)
	if err != nil {
		return Result{}, fmt.Errorf("diff: %w", err)
	}
	stats.FilesChanged = changes.Count()

	if ShouldFallback(changes.Count(), req.FallbackThreshold) {
		e.logger.Warn("incremental cycle exceeded fallback threshold, deferring to full reindex",
			"repo_id", req.RepoID, "changed_files", changes.Count())
		event := BuildIndexEvent(req.OrgID, req.RepoID, req.PushSHA, req.CommitMessage, req.WorkflowID,
			graph.IndexEventForcePushReindex, stats, time.Since(start))
		if err := e.graphStore.AppendIndexEvent(ctx, event); err != nil {
			return Result{}, fmt.Errorf("append fallback index event: %w", err)
		}
		return Result{FellBackToFullReindex: true, Event: event}, nil
	}

	changedPaths := changes.Changed()
	batch, err := e.reindexer.ReindexFiles(ctx, req.OrgID, req.RepoID, req.HeadSHA, req.RepoDir, changedPaths)
	if err != nil {
		return Result{}, fmt.Errorf("reindex files: %w", err)
	}
	stats.ExtractionErrors = batch.Errors

	existingEntities, err := e.graphStore.GetEntitiesByFile(ctx, req.RepoID, append(changedPaths, changes.Deleted...))
	if err != nil {
		return Result{}, fmt.Errorf("load existing entities for changed files: %w", err)
	}

	removedIDs := make(map[string]bool)
	deletedPaths := make(map[string]bool, len(changes.Deleted))
	for _, p := range changes.Deleted {
		deletedPaths[p] = true
	}
	var toDeleteIDs []string
	for _, ent := range existingEntities {
		if deletedPaths[ent.FilePath] {
			removedIDs[ent.ID] = true
			toDeleteIDs = append(toDeleteIDs, ent.ID)
		}
	}
	if len(toDeleteIDs) > 0 {
		if err := e.graphStore.DeleteEntities(ctx, req.RepoID, toDeleteIDs); err != nil {
			return Result{}, fmt.Errorf("delete removed entities: %w", err)
		}
		stats.EntitiesDeleted = len(toDeleteIDs)
	}

	if len(batch.Entities) > 0 {
		if err := e.graphStore.BulkUpsertEntities(ctx, batch.Entities); err != nil {
			return Result{}, fmt.Errorf("upsert reindexed entities: %w", err)
		}
	}
	changedIDs := make(map[string]bool, len(batch.Entities))
	for _, ent := range batch.Entities {
		changedIDs[ent.ID] = true
	}
	stats.EntitiesAdded = len(batch.Entities)

	existingEdges, err := e.graphStore.GetAllEdges(ctx, req.RepoID)
	if err != nil {
		return Result{}, fmt.Errorf("load existing edges: %w", err)
	}
	toDeleteEdges, toInsertEdges := RepairEdges(existingEdges, batch.Edges, changedIDs, removedIDs)
	if len(toDeleteEdges) > 0 {
		if err := e.graphStore.DeleteEdges(ctx, req.RepoID, toDeleteEdges); err != nil {
			return Result{}, fmt.Errorf("delete stale edges: %w", err)
		}
	}
	if len(toInsertEdges) > 0 {
		if err := e.graphStore.BulkUpsertEdges(ctx, toInsertEdges); err != nil {
			return Result{}, fmt.Errorf("insert repaired edges: %w", err)
		}
	}
	stats.EdgesRepaired = len(toDeleteEdges) + len(toInsertEdges)

	allEntities, err := e.graphStore.GetAllEntities(ctx, req.RepoID)
	if err != nil {
		return Result{}, fmt.Errorf("reload entities after repair: %w", err)
	}
	allEdges, err := e.graphStore.GetAllEdges(ctx, req.RepoID)
	if err != nil {
		return Result{}, fmt.Errorf("reload edges after repair: %w", err)
	}

	cascadeSet := ComputeCascade(allEdges, keys(changedIDs), req.CascadeMaxDepth)
	stats.CascadeEntities = len(cascadeSet)
	if justifyEngine != nil {
		if _, err := justifyEngine.Run(ctx, req.RepoID, cascadeSet, nil); err != nil {
			e.logger.Error("cascade re-justification failed", "repo_id", req.RepoID, "err", err)
			stats.CascadeStatus = graph.CascadeFailed
		} else {
			stats.CascadeStatus = graph.CascadeCompleted
		}
	}

	updated, err := e.refreshEmbeddings(ctx, req.RepoID, batch.Entities)
	if err != nil {
		e.logger.Error("embedding refresh failed", "repo_id", req.RepoID, "err", err)
	}

	liveIDs := make([]string, 0, len(allEntities))
	for _, ent := range allEntities {
		if !ent.Quarantined {
			liveIDs = append(liveIDs, ent.ID)
		}
	}
	deleted, err := e.vectorIndex.DeleteOrphanEmbeddings(ctx, req.RepoID, liveIDs)
	if err != nil {
		e.logger.Error("orphan embedding cleanup failed", "repo_id", req.RepoID, "err", err)
	}
	stats.EmbeddingsUpdated = updated + deleted

	if e.cache != nil {
		cacheKey := fmt.Sprintf("incremental:debounce:%s", req.RepoID)
		if err := e.cache.Release(ctx, cacheKey); err != nil {
			e.logger.Warn("failed to release debounce lock", "repo_id", req.RepoID, "err", err)
		}
	}

	event := BuildIndexEvent(req.OrgID, req.RepoID, req.PushSHA, req.CommitMessage, req.WorkflowID,
		graph.IndexEventIncremental, stats, time.Since(start))
	if err := e.graphStore.AppendIndexEvent(ctx, event); err != nil {
		return Result{}, fmt.Errorf("append index event: %w", err)
	}

	return Result{Event: event}, nil
}

// refreshEmbeddings re-embeds only the entities this cycle actually
// touched, rather than re-running pkg/embedding.Engine's full-repo sweep
// — the point of the incremental path is to avoid that cost.
func (e *Engine) refreshEmbeddings(ctx context.Context, repoID string, changed []graph.Entity) (int, error) {
	if len(changed) == 0 || e.embedder == nil {
		return 0, nil
	}

	ids := make([]string, len(changed))
	for i, ent := range changed {
		ids[i] = ent.ID
	}
	justifications, err := e.graphStore.GetJustifications(ctx, repoID, ids)
	if err != nil {
		return 0, fmt.Errorf("load justifications for re-embed: %w", err)
	}
	justByID := make(map[string]graph.Justification, len(justifications))
	for _, j := range justifications {
		justByID[j.EntityID] = j
	}

	docs := embedding.BuildDocuments(changed, justByID)
	embeddings := make([]ports.EntityEmbedding, 0, len(docs))
	for _, doc := range docs {
		vector, err := embedding.EmbedWithRetry(ctx, e.embedder, doc.TextContent, embedding.DefaultRetryConfig())
		if err != nil {
			e.logger.Error("embed entity failed", "entity_id", doc.EntityID, "err", err)
			continue
		}
		embeddings = append(embeddings, ports.EntityEmbedding{EntityID: doc.EntityID, Vector: vector})
	}
	if len(embeddings) == 0 {
		return 0, nil
	}
	if err := e.vectorIndex.UpsertEmbeddings(ctx, repoID, embeddings); err != nil {
		return 0, fmt.Errorf("upsert refreshed embeddings: %w", err)
	}
	return len(embeddings), nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
