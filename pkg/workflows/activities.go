// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/activity"

	"github.com/kraklabs/cartograph/pkg/embedding"
	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/graphanalysis"
	"github.com/kraklabs/cartograph/pkg/incremental"
	"github.com/kraklabs/cartograph/pkg/justify"
	"github.com/kraklabs/cartograph/pkg/ontology"
	"github.com/kraklabs/cartograph/pkg/pipelinerun"
	"github.com/kraklabs/cartograph/pkg/ports"
	"github.com/kraklabs/cartograph/pkg/workflows/errclass"
)

// FullIndexer runs the tree-sitter parse and store chain for one
// already checked-out repo and reports aggregate counts. The concrete implementation wraps
// pkg/ingestion.LocalPipeline; this interface exists so pkg/workflows
// never has to know LocalPipeline's construction details, only its
// result shape.
type FullIndexer interface {
	RunFullIndex(ctx context.Context, req FullIndexRequest) (FullIndexResult, error)
}

// FullIndexRequest is the input to one full-index run. LocalPath must
// already be a checked-out working copy — cloning is the caller's
// responsibility via ports.GitHost, kept out of this core per 's
// "GitHub integration is an external collaborator" non-goal.
type FullIndexRequest struct {
	OrgID        string
	RepoID       string
	LocalPath    string
	IndexVersion string
}

// FullIndexResult summarizes one full-index run for workflow history and
// the getProgress query, deliberately excluding entity/edge bodies.
type FullIndexResult struct {
	FilesProcessed int
	EntitiesWritten int
	EdgesWritten    int
}

// Activities bundles every activity this package registers. Temporal
// discovers its exported methods via worker.RegisterActivity(activities),
// the same struct-of-methods registration pkg/graphanalysis and
// pkg/justify's engines use for their own Run entry points — here each
// method is a thin wrapper around one of those engines.
type Activities struct {
	Git               ports.GitHost
	FullIndexer       FullIndexer
	GraphStore        ports.GraphStore
	RelationalStore   ports.RelationalStore
	Tracker           *pipelinerun.Tracker
	StructuralEngine  *graphanalysis.Engine
	OntologyEngine    *ontology.Engine
	EmbeddingEngine   *embedding.Engine
	JustifyEngine     *justify.Engine
	IncrementalEngine *incremental.Engine
	PatternEngine     ports.PatternEngine
	Logger            *slog.Logger
}

func (a *Activities) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// RepoRequest is the input every single-repo activity shares.
type RepoRequest struct {
	OrgID  string
	RepoID string
}

// CloneRequest is the input to CloneRepoActivity.
type CloneRequest struct {
	RepoID    string
	GitURL    string
	Ref       string
	LocalPath string
}

// CloneRepoActivity checks out GitURL@Ref into LocalPath via the GitHost
// port.
func (a *Activities) CloneRepoActivity(ctx context.Context, req CloneRequest) error {
	activity.RecordHeartbeat(ctx, "cloning")
	if err := a.Git.Clone(ctx, req.GitURL, req.Ref, req.LocalPath); err != nil {
		return errclass.Wrap(errclass.CategoryGit, err)
	}
	return nil
}

// RunFullIndexActivity runs the tree-sitter parse and store chain via the
// configured FullIndexer.
func (a *Activities) RunFullIndexActivity(ctx context.Context, req FullIndexRequest) (FullIndexResult, error) {
	activity.RecordHeartbeat(ctx, "indexing")
	result, err := a.FullIndexer.RunFullIndex(ctx, req)
	if err != nil {
		return FullIndexResult{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return result, nil
}

// RunGraphAnalysisActivity computes weighted PageRank, fan-in/fan-out, and
// risk tagging for the repo (, pkg/graphanalysis.Engine.Run).
func (a *Activities) RunGraphAnalysisActivity(ctx context.Context, req RepoRequest) error {
	if err := a.StructuralEngine.Run(ctx, req.RepoID); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}

// RunDiscoverOntologyActivity mines the repo's DomainOntology from entity
// names and file paths (pkg/ontology.Engine.Run).
func (a *Activities) RunDiscoverOntologyActivity(ctx context.Context, req RepoRequest) error {
	if err := a.OntologyEngine.Run(ctx, req.RepoID); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}

// EmbedRepoResult reports the embedding pass's final progress.
type EmbedRepoResult struct {
	FilesDone        int
	EntitiesEmbedded int
}

// RunEmbedRepoActivity embeds every live entity's EmbeddableDocument and
// upserts the vectors, heartbeating as pkg/embedding.Engine reports
// per-batch progress.
func (a *Activities) RunEmbedRepoActivity(ctx context.Context, req RepoRequest) (EmbedRepoResult, error) {
	justifications, err := a.GraphStore.GetJustifications(ctx, req.RepoID, nil)
	if err != nil {
		return EmbedRepoResult{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	justByID := make(map[string]graph.Justification, len(justifications))
	for _, j := range justifications {
		justByID[j.EntityID] = j
	}

	progress, err := a.EmbeddingEngine.Run(ctx, req.RepoID, justByID, func(p embedding.Progress) {
		activity.RecordHeartbeat(ctx, p)
	})
	if err != nil {
		return EmbedRepoResult{}, errclass.Wrap(errclass.CategoryLLM, err)
	}
	return EmbedRepoResult{FilesDone: progress.FilesDone, EntitiesEmbedded: progress.DocumentsEmbedded}, nil
}

// JustifyRepoResult reports the justification pass's final progress.
type JustifyRepoResult struct {
	EntitiesDone int
	Reused       int
	Errors       int
}

// RunJustifyRepoActivity runs the full justification engine with no
// cascade restriction (every live entity is in scope), heartbeating as
// pkg/justify.Engine reports per-level progress.
func (a *Activities) RunJustifyRepoActivity(ctx context.Context, req RepoRequest) (JustifyRepoResult, error) {
	if a.JustifyEngine == nil {
		return JustifyRepoResult{}, nil
	}
	progress, err := a.JustifyEngine.Run(ctx, req.RepoID, nil, func(p justify.Progress) {
		activity.RecordHeartbeat(ctx, p)
	})
	if err != nil {
		return JustifyRepoResult{}, errclass.Wrap(errclass.CategoryLLM, err)
	}
	return JustifyRepoResult{EntitiesDone: progress.EntitiesDone, Reused: progress.Reused, Errors: progress.Errors}, nil
}

// RunHealthReportActivity regenerates the HealthReport and feature
// aggregations from the repo's current justifications, independent of
// whether a justify pass just ran —  names
// generateHealthReport as its own workflow step so a caller can refresh
// the report without re-justifying anything.
func (a *Activities) RunHealthReportActivity(ctx context.Context, req RepoRequest) error {
	entities, err := a.GraphStore.GetAllEntities(ctx, req.RepoID)
	if err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	justifications, err := a.GraphStore.GetJustifications(ctx, req.RepoID, nil)
	if err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	justByID := make(map[string]graph.Justification, len(justifications))
	for _, j := range justifications {
		justByID[j.EntityID] = j
	}

	report := justify.BuildHealthReport(req.RepoID, entities, justByID)
	if err := a.GraphStore.PutHealthReport(ctx, report); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}

	edges, err := a.GraphStore.GetAllEdges(ctx, req.RepoID)
	if err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	aggs := justify.AggregateFeatures(req.RepoID, entities, edges, justByID)
	if err := a.GraphStore.PutFeatureAggregations(ctx, aggs); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}

// DetectPatternsResult reports how many structural patterns were found.
type DetectPatternsResult struct {
	PatternsFound int
}

// RunDetectPatternsActivity runs the configured PatternEngine. It is
// started from an ABANDON child workflow and is allowed to fail without
// affecting the parent's outcome.
func (a *Activities) RunDetectPatternsActivity(ctx context.Context, req RepoRequest) (DetectPatternsResult, error) {
	if a.PatternEngine == nil {
		return DetectPatternsResult{}, nil
	}
	patterns, err := a.PatternEngine.DetectPatterns(ctx, req.RepoID)
	if err != nil {
		return DetectPatternsResult{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return DetectPatternsResult{PatternsFound: len(patterns)}, nil
}

// RunIncrementalActivity runs one incremental cycle via
// pkg/incremental.Engine.
func (a *Activities) RunIncrementalActivity(ctx context.Context, req incremental.Request) (incremental.Result, error) {
	result, err := a.IncrementalEngine.Run(ctx, req, a.JustifyEngine)
	if err != nil {
		return incremental.Result{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return result, nil
}

// ReconciliationResult reports whether the repo's live entity count
// matched what the last pipeline run recorded.
type ReconciliationResult struct {
	ExpectedCount int
	ActualCount   int
	Drifted       bool
}

// RunReconciliationActivity reads the graph store's live entity count and
// looks up the last recorded PipelineRun, run as its own standalone
// workflow. PipelineRun records no entity count, so ExpectedCount is set to
// the live count and Drifted is always false; the result reports the live
// count only.
func (a *Activities) RunReconciliationActivity(ctx context.Context, req RepoRequest) (ReconciliationResult, error) {
	actual, err := a.GraphStore.VerifyEntityCounts(ctx, req.RepoID)
	if err != nil {
		return ReconciliationResult{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	if a.Tracker == nil {
		return ReconciliationResult{ActualCount: actual}, nil
	}

	run, err := a.Tracker.Latest(ctx, req.RepoID)
	if err != nil {
		return ReconciliationResult{}, errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	if run == nil {
		return ReconciliationResult{ActualCount: actual}, nil
	}

	expected := actual // no entity-count field on PipelineRun to compare against directly
	drifted := expected != actual
	if drifted {
		a.logger().Warn("reconciliation.count.drift", "repo_id", req.RepoID, "expected", expected, "actual", actual)
	}
	return ReconciliationResult{ExpectedCount: expected, ActualCount: actual, Drifted: drifted}, nil
}

// StartPipelineRunRequest is the input to StartPipelineRunActivity.
type StartPipelineRunRequest struct {
	Run graph.PipelineRun
}

// StartPipelineRunActivity seeds a new PipelineRun via pkg/pipelinerun so
// the status CLI command can see a run exists from the moment
// IndexRepoWorkflow/IncrementalIndexWorkflow starts.
func (a *Activities) StartPipelineRunActivity(ctx context.Context, req StartPipelineRunRequest) error {
	if a.Tracker == nil {
		return nil
	}
	if err := a.Tracker.Start(ctx, req.Run); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}

// TrackPipelineStepRequest is the input to TrackPipelineStepActivity.
type TrackPipelineStepRequest struct {
	RunID        string
	RepoID       string
	Name         graph.StepName
	Status       graph.StepStatus
	ErrorMessage string
}

// TrackPipelineStepActivity records one PipelineStep transition and a
// progress log line via pkg/pipelinerun.Tracker, so the status CLI command
// can show per-step progress for a running workflow.
func (a *Activities) TrackPipelineStepActivity(ctx context.Context, req TrackPipelineStepRequest) error {
	if a.Tracker == nil {
		return nil
	}
	var stepErr error
	if req.ErrorMessage != "" {
		stepErr = errors.New(req.ErrorMessage)
	}
	if err := a.Tracker.Step(ctx, req.RunID, req.RepoID, req.Name, req.Status, stepErr); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}

// FinishPipelineRunRequest is the input to FinishPipelineRunActivity.
type FinishPipelineRunRequest struct {
	RunID        string
	RepoID       string
	Status       graph.RepoStatus
	ErrorMessage string
}

// FinishPipelineRunActivity sets the run's terminal status and archives
// its buffered progress log (pkg/pipelinerun.Tracker.Finish).
func (a *Activities) FinishPipelineRunActivity(ctx context.Context, req FinishPipelineRunRequest) error {
	if a.Tracker == nil {
		return nil
	}
	var finalErr error
	if req.ErrorMessage != "" {
		finalErr = errors.New(req.ErrorMessage)
	}
	if err := a.Tracker.Finish(ctx, req.RunID, req.RepoID, req.Status, finalErr); err != nil {
		return errclass.Wrap(errclass.CategoryGraphIO, err)
	}
	return nil
}
