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

// Package ports defines the interfaces every engine, workflow, and activity
// in this repository is written against. Concrete implementations (CozoDB,
// Postgres, Redis, Temporal, git) live in pkg/storage, pkg/workflows, and
// pkg/ingestion; nothing outside those packages imports a driver directly.
package ports

import (
	"context"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// GraphStore is the append/query surface over the typed semantic code
// graph. Every method is scoped to a repo (and, where relevant, an
// index_version) so a full re-index can shadow-swap without interleaving
// partially-written state into queries from a concurrent read.
type GraphStore interface {
	// BootstrapSchema creates the backing relations/indexes if absent. Safe
	// to call on every process start.
	BootstrapSchema(ctx context.Context) error

	BulkUpsertEntities(ctx context.Context, entities []graph.Entity) error
	BulkUpsertEdges(ctx context.Context, edges []graph.Edge) error

	GetAllEntities(ctx context.Context, repoID string) ([]graph.Entity, error)
	GetAllEdges(ctx context.Context, repoID string) ([]graph.Edge, error)
	GetEntitiesByFile(ctx context.Context, repoID string, filePaths []string) ([]graph.Entity, error)
	GetFilePaths(ctx context.Context, repoID string) ([]string, error)
	GetCalleesOf(ctx context.Context, repoID string, entityID string) ([]string, error)
	GetCallersOf(ctx context.Context, repoID string, entityID string) ([]string, error)

	// UpdateComputedFields writes back the structural fields graph-analysis
	// derives (FanIn/FanOut/RiskLevel/PageRank/PageRankPercentile) without
	// touching any other entity field.
	UpdateComputedFields(ctx context.Context, repoID string, updates []EntityComputedUpdate) error

	BulkUpsertJustifications(ctx context.Context, justifications []graph.Justification) error
	GetJustification(ctx context.Context, entityID string) (*graph.Justification, error)
	GetJustifications(ctx context.Context, repoID string, entityIDs []string) ([]graph.Justification, error)

	PutDomainOntology(ctx context.Context, ontology graph.DomainOntology) error
	GetDomainOntology(ctx context.Context, repoID string) (*graph.DomainOntology, error)

	PutFeatureAggregations(ctx context.Context, aggregations []graph.FeatureAggregation) error
	GetFeatureAggregations(ctx context.Context, repoID string) ([]graph.FeatureAggregation, error)

	PutHealthReport(ctx context.Context, report graph.HealthReport) error
	PutADRs(ctx context.Context, adrs []graph.ADR) error

	AppendIndexEvent(ctx context.Context, event graph.IndexEvent) error
	GetIndexEvents(ctx context.Context, repoID string, limit int) ([]graph.IndexEvent, error)

	// DeleteStaleByIndexVersion removes every entity/edge for repoID whose
	// index_version differs from currentVersion, completing a full
	// re-index's shadow-swap.
	DeleteStaleByIndexVersion(ctx context.Context, repoID, currentVersion string) (deleted int, err error)
	DeleteRepoData(ctx context.Context, repoID string) error

	// DeleteEntities and DeleteEdges back the incremental pipeline's diff
	// -apply step: removing exactly the entities/edges a changed or
	// deleted file no longer produces, without touching the rest of the
	// repo's graph the way a full DeleteStaleByIndexVersion swap would.
	DeleteEntities(ctx context.Context, repoID string, entityIDs []string) error
	DeleteEdges(ctx context.Context, repoID string, edges []graph.Edge) error

	// VerifyEntityCounts returns the live entity count for repoID, used as a
	// post-write sanity check before a pipeline step is marked done.
	VerifyEntityCounts(ctx context.Context, repoID string) (int, error)
}

// EntityComputedUpdate is the narrow field set graph-analysis writes back,
// kept separate from graph.Entity so a computed-field pass never risks
// clobbering extraction-owned fields it never read.
type EntityComputedUpdate struct {
	EntityID           string
	FanIn              int
	FanOut             int
	RiskLevel          graph.RiskLevel
	PageRank           float64
	PageRankPercentile int
}

// RelationalStore tracks PipelineRun/PipelineStep progress for the status
// CLI command and for resuming an interrupted pipeline.
type RelationalStore interface {
	CreatePipelineRun(ctx context.Context, run graph.PipelineRun) error
	UpdatePipelineStep(ctx context.Context, runID string, step graph.PipelineStep) error
	SetPipelineRunStatus(ctx context.Context, runID string, status graph.RepoStatus, lastError string) error
	GetPipelineRun(ctx context.Context, runID string) (*graph.PipelineRun, error)
	GetLatestPipelineRun(ctx context.Context, repoID string) (*graph.PipelineRun, error)
	Close() error
}

// CacheStore backs locks, short-lived progress gauges, and the debounce
// cursor the incremental workflow uses between signals.
type CacheStore interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (acquired bool, err error)
	Release(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// AppendLog is the fire-and-forget per-repo log buffer: pipelinerun
	// writes progress lines here continuously and the archival pass moves
	// them to durable storage once the owning workflow reaches a terminal
	// state ( "fire-and-forget logging" redesign flag).
	AppendLog(ctx context.Context, repoID string, line string) error
	DrainLog(ctx context.Context, repoID string) ([]string, error)
}

// VectorIndex is the nearest-neighbor search surface over entity
// embeddings, backed by CozoDB's HNSW index in this repo's one reference
// implementation.
type VectorIndex interface {
	EnsureIndex(ctx context.Context) error
	UpsertEmbeddings(ctx context.Context, repoID string, embeddings []EntityEmbedding) error
	DeleteOrphanEmbeddings(ctx context.Context, repoID string, liveEntityIDs []string) (deleted int, err error)
	SearchSimilar(ctx context.Context, repoID string, vector []float32, topK int) ([]SimilarEntity, error)
}

// EntityEmbedding pairs an entity with its embedding vector for storage.
type EntityEmbedding struct {
	EntityID string
	Vector   []float32
}

// SimilarEntity is one nearest-neighbor search result.
type SimilarEntity struct {
	EntityID string
	Score    float64
}

// GitHost is the minimal, clone-only surface the workspace-preparation step
// needs. PR commenting, webhooks, and any other GitHub-specific API are
// out of scope — this port exists solely so a real implementation can be
// swapped behind a local-path fake in tests.
type GitHost interface {
	Clone(ctx context.Context, url, ref, destDir string) error
	DiffNameStatus(ctx context.Context, repoDir, baseSHA, headSHA string) ([]FileChange, error)
	HeadSHA(ctx context.Context, repoDir string) (string, error)
}

// FileChange is one line of `git diff --name-status` output.
type FileChange struct {
	Path    string
	OldPath string // set only for renames
	Status  string // "A", "M", "D", "R"
}

// Reindexer parses a batch of changed file paths and returns the entities
// and edges extracted from them, without writing anything itself — the
// caller (pkg/incremental) owns the diff-apply and edge-repair steps. The
// concrete implementation wraps pkg/ingestion's parser against a repo
// checkout; this interface exists so pkg/incremental never imports
// pkg/ingestion directly.
type Reindexer interface {
	ReindexFiles(ctx context.Context, orgID, repoID, indexVersion, repoDir string, filePaths []string) (ReindexBatchResult, error)
}

// ReindexBatchResult is the output of one reindex batch: freshly extracted
// entities/edges plus any per-file extraction errors, collected across the
// workflow boundary as IDs and counts rather than full bodies wherever the
// caller can avoid it.
type ReindexBatchResult struct {
	Entities []graph.Entity
	Edges    []graph.Edge
	Errors   []string
}

// PatternEngine is an abstract hook for detectPatterns's structural-pattern
// analysis, left unspecified so it can evolve independently. The reference
// implementation runs a small set of structural heuristics (god-object,
// circular-dependency-cluster) over the graph arenas rather than a
// learned model.
type PatternEngine interface {
	DetectPatterns(ctx context.Context, repoID string) ([]DetectedPattern, error)
}

// DetectedPattern is one structural pattern match surfaced by a
// PatternEngine run.
type DetectedPattern struct {
	Name        string
	Description string
	EntityIDs   []string
	Severity    string
}

// WorkflowEngine is the narrow surface cmd/cartograph and pkg/incremental
// need against the durable-execution engine: starting/signaling workflows
// and querying their progress. The concrete implementation wraps a Temporal
// client; tests exercise a fake that runs workflow bodies inline.
type WorkflowEngine interface {
	StartIndexRepo(ctx context.Context, repoID string, req IndexRepoRequest) (workflowID string, err error)
	StartIncrementalIndex(ctx context.Context, repoID string) (workflowID string, err error)
	SignalPush(ctx context.Context, workflowID string, push PushSignal) error
	QueryProgress(ctx context.Context, workflowID string) (Progress, error)
}

// IndexRepoRequest is the input to a full indexRepo workflow run.
type IndexRepoRequest struct {
	OrgID      string
	GitURL     string
	LocalPath  string
	Ref        string
}

// PushSignal is the payload of the "push" signal an incremental workflow
// listens for between debounce windows.
type PushSignal struct {
	PushSHA       string
	CommitMessage string
	ReceivedAt    time.Time
}

// Progress is the result of a getProgress-style workflow query.
type Progress struct {
	Step      string
	Percent   int
	LastError string
}
