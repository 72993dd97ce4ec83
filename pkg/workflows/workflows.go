// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// heavyActivityOptions is used for steps that call an LLM or embedding
// provider: a longer timeout, a heartbeat so a stuck call is detected
// well before StartToCloseTimeout, and a shallower retry budget since a
// persistent provider outage shouldn't retry forever.
func heavyActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		TaskQueue:           QueueHeavy,
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    2 * time.Minute,
			MaximumAttempts:    3,
		},
	}
}

// lightActivityOptions is used for clone/parse/bookkeeping steps: shorter
// timeout, more retries, since these are cheap and idempotent.
func lightActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		TaskQueue:           QueueLight,
		StartToCloseTimeout: defaultActivityTimeout,
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
}

// IndexRepoWorkflowInput is the input to IndexRepoWorkflow.
type IndexRepoWorkflowInput struct {
	OrgID         string
	RepoID        string
	GitURL        string
	LocalPath     string
	Ref           string
	IndexVersion  string
	PipelineRunID string
}

// IndexRepoWorkflowResult reports the full pipeline's outcome.
type IndexRepoWorkflowResult struct {
	FullIndex FullIndexResult
	Embed     EmbedRepoResult
	Justify   JustifyRepoResult
}

// IndexRepoWorkflow runs the full-pipeline chain in a fixed order: clone,
// full index, graph analysis, embed, ontology, justify, health report —
// then starts syncLocalGraph and detectPatterns as ABANDON children that
// outlive this workflow. Steps that have a pkg/graph.OrderedSteps name
// (clone, parse, finalize, graphSync, embed) are tracked under it;
// ontology, justify and health report are not tracked as PipelineSteps.
func IndexRepoWorkflow(ctx workflow.Context, input IndexRepoWorkflowInput) (IndexRepoWorkflowResult, error) {
	var result IndexRepoWorkflowResult
	var a *Activities
	repoID := input.RepoID
	runID := input.PipelineRunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	progress := ports.Progress{Step: string(graph.StepClone)}
	if err := workflow.SetQueryHandler(ctx, QueryProgress, func() (ports.Progress, error) { return progress, nil }); err != nil {
		return result, err
	}

	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())
	req := RepoRequest{OrgID: input.OrgID, RepoID: repoID}

	run := graph.PipelineRun{
		ID: runID, OrgID: input.OrgID, RepoID: repoID, WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID,
		RunKind: "full", Status: graph.RepoStatusIndexing, StartedAt: workflow.Now(ctx),
	}
	_ = workflow.ExecuteActivity(lightCtx, a.StartPipelineRunActivity, StartPipelineRunRequest{Run: run}).Get(ctx, nil)

	finish := func(status graph.RepoStatus, failure error) (IndexRepoWorkflowResult, error) {
		msg := ""
		if failure != nil {
			msg = failure.Error()
		}
		_ = workflow.ExecuteActivity(lightCtx, a.FinishPipelineRunActivity, FinishPipelineRunRequest{
			RunID: runID, RepoID: repoID, Status: status, ErrorMessage: msg,
		}).Get(ctx, nil)
		return result, failure
	}

	if err := trackStep(lightCtx, runID, repoID, graph.StepClone, graph.StepRunning); err != nil {
		return finish(graph.RepoStatusError, err)
	}
	if input.GitURL != "" {
		cloneReq := CloneRequest{RepoID: repoID, GitURL: input.GitURL, Ref: input.Ref, LocalPath: input.LocalPath}
		if err := workflow.ExecuteActivity(lightCtx, a.CloneRepoActivity, cloneReq).Get(ctx, nil); err != nil {
			_ = trackStep(lightCtx, runID, repoID, graph.StepClone, graph.StepError)
			return finish(graph.RepoStatusError, err)
		}
	}
	_ = trackStep(lightCtx, runID, repoID, graph.StepClone, graph.StepDone)

	progress.Step = string(graph.StepParse)
	fullIndexReq := FullIndexRequest{OrgID: input.OrgID, RepoID: repoID, LocalPath: input.LocalPath, IndexVersion: input.IndexVersion}
	if err := workflow.ExecuteActivity(lightCtx, a.RunFullIndexActivity, fullIndexReq).Get(ctx, &result.FullIndex); err != nil {
		_ = trackStep(lightCtx, runID, repoID, graph.StepParse, graph.StepError)
		return finish(graph.RepoStatusError, err)
	}
	_ = trackStep(lightCtx, runID, repoID, graph.StepParse, graph.StepDone)
	_ = trackStep(lightCtx, runID, repoID, graph.StepFinalize, graph.StepDone)

	progress.Step = string(graph.StepGraphSync)
	if err := workflow.ExecuteActivity(lightCtx, a.RunGraphAnalysisActivity, req).Get(ctx, nil); err != nil {
		_ = trackStep(lightCtx, runID, repoID, graph.StepGraphSync, graph.StepError)
		return finish(graph.RepoStatusError, err)
	}
	_ = trackStep(lightCtx, runID, repoID, graph.StepGraphSync, graph.StepDone)

	progress.Step = string(graph.StepEmbed)
	if err := workflow.ExecuteChildWorkflow(ctx, EmbedRepoWorkflow, req).Get(ctx, &result.Embed); err != nil {
		_ = trackStep(lightCtx, runID, repoID, graph.StepEmbed, graph.StepError)
		return finish(graph.RepoStatusEmbedFailed, err)
	}
	_ = trackStep(lightCtx, runID, repoID, graph.StepEmbed, graph.StepDone)

	progress.Step = "ontology"
	if err := workflow.ExecuteChildWorkflow(ctx, DiscoverOntologyWorkflow, req).Get(ctx, nil); err != nil {
		return finish(graph.RepoStatusError, err)
	}

	progress.Step = "justify"
	if err := workflow.ExecuteChildWorkflow(ctx, JustifyRepoWorkflow, req).Get(ctx, &result.Justify); err != nil {
		return finish(graph.RepoStatusJustifyFailed, err)
	}

	progress.Step = "healthReport"
	if err := workflow.ExecuteChildWorkflow(ctx, GenerateHealthReportWorkflow, req).Get(ctx, nil); err != nil {
		return finish(graph.RepoStatusError, err)
	}

	startAbandonedChild(ctx, SyncLocalGraphWorkflow, req)
	startAbandonedChild(ctx, DetectPatternsWorkflow, req)

	progress.Step = string(graph.StepPatternDetection)
	return finish(graph.RepoStatusReady, nil)
}

// trackStep records one PipelineStep transition and returns the tracking
// activity's error. IndexRepoWorkflow discards that error for every
// transition except the first (clone running), so bookkeeping failures
// after the run has started do not fail the workflow.
func trackStep(ctx workflow.Context, runID, repoID string, name graph.StepName, status graph.StepStatus) error {
	if runID == "" {
		return nil
	}
	var a *Activities
	future := workflow.ExecuteActivity(ctx, a.TrackPipelineStepActivity, TrackPipelineStepRequest{
		RunID: runID, RepoID: repoID, Name: name, Status: status,
	})
	return future.Get(ctx, nil)
}

// startAbandonedChild starts a child workflow with ParentClosePolicy
// ABANDON: it keeps running even after this workflow completes, the way
// syncLocalGraph and detectPatterns outlive the IndexRepoWorkflow that
// spawned them.
func startAbandonedChild(ctx workflow.Context, wf interface{}, req RepoRequest) {
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		TaskQueue:         QueueLight,
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
	})
	_ = workflow.ExecuteChildWorkflow(childCtx, wf, req)
}

// EmbedRepoWorkflow is the embedRepo child workflow: one heavy activity
// call wrapped so it can be started and awaited independently of
// IndexRepoWorkflow (e.g. re-run after an embedding provider outage
// without repeating clone/parse).
func EmbedRepoWorkflow(ctx workflow.Context, req RepoRequest) (EmbedRepoResult, error) {
	var result EmbedRepoResult
	var a *Activities
	if err := workflow.SetQueryHandler(ctx, QueryEmbed, func() (EmbedRepoResult, error) { return result, nil }); err != nil {
		return result, err
	}
	heavyCtx := workflow.WithActivityOptions(ctx, heavyActivityOptions())
	err := workflow.ExecuteActivity(heavyCtx, a.RunEmbedRepoActivity, req).Get(ctx, &result)
	return result, err
}

// DiscoverOntologyWorkflow is the discoverOntology child workflow.
func DiscoverOntologyWorkflow(ctx workflow.Context, req RepoRequest) error {
	var a *Activities
	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())
	return workflow.ExecuteActivity(lightCtx, a.RunDiscoverOntologyActivity, req).Get(ctx, nil)
}

// JustifyRepoWorkflow is the justifyRepo child workflow.
func JustifyRepoWorkflow(ctx workflow.Context, req RepoRequest) (JustifyRepoResult, error) {
	var result JustifyRepoResult
	var a *Activities
	if err := workflow.SetQueryHandler(ctx, QueryJustify, func() (JustifyRepoResult, error) { return result, nil }); err != nil {
		return result, err
	}
	heavyCtx := workflow.WithActivityOptions(ctx, heavyActivityOptions())
	err := workflow.ExecuteActivity(heavyCtx, a.RunJustifyRepoActivity, req).Get(ctx, &result)
	return result, err
}

// GenerateHealthReportWorkflow is the generateHealthReport child workflow.
func GenerateHealthReportWorkflow(ctx workflow.Context, req RepoRequest) error {
	var a *Activities
	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())
	return workflow.ExecuteActivity(lightCtx, a.RunHealthReportActivity, req).Get(ctx, nil)
}

// SyncLocalGraphWorkflow is started with ParentClosePolicy ABANDON by
// IndexRepoWorkflow. Its own scope ( names it but
// leaves its contents to the embedding product) is the reconciliation
// check: RunReconciliationActivity reads the graph store's live entity
// count once the parent has moved on.
func SyncLocalGraphWorkflow(ctx workflow.Context, req RepoRequest) (ReconciliationResult, error) {
	var result ReconciliationResult
	var a *Activities
	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())
	err := workflow.ExecuteActivity(lightCtx, a.RunReconciliationActivity, req).Get(ctx, &result)
	return result, err
}

// DetectPatternsWorkflow is started with ParentClosePolicy ABANDON by
// IndexRepoWorkflow; it runs structural pattern detection independently
// so a slow or failing pattern scan never blocks the indexing result.
func DetectPatternsWorkflow(ctx workflow.Context, req RepoRequest) (DetectPatternsResult, error) {
	var result DetectPatternsResult
	var a *Activities
	lightCtx := workflow.WithActivityOptions(ctx, lightActivityOptions())
	err := workflow.ExecuteActivity(lightCtx, a.RunDetectPatternsActivity, req).Get(ctx, &result)
	return result, err
}

// ReconciliationWorkflow is the standalone reconciliation workflow 
// §2 item 6 names, callable on its own (e.g. from a scheduled cron-style
// start) rather than only as IndexRepoWorkflow's ABANDON child.
func ReconciliationWorkflow(ctx workflow.Context, req RepoRequest) (ReconciliationResult, error) {
	return SyncLocalGraphWorkflow(ctx, req)
}
