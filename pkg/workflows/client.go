// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflows

import (
	"context"
	"fmt"
	"strings"

	"go.temporal.io/sdk/client"

	"github.com/kraklabs/cartograph/pkg/ports"
)

const incrementalWorkflowIDPrefix = "incremental-index-"

// TemporalWorkflowEngine implements ports.WorkflowEngine against a real
// Temporal client. cmd/cartograph constructs one from client.Dial and
// hands it to the CLI commands and webhook adapter that need to start or
// query workflows; nothing outside this file imports go.temporal.io/sdk/client
// directly.
type TemporalWorkflowEngine struct {
	Client client.Client
}

// NewTemporalWorkflowEngine wraps an already-dialed Temporal client.
func NewTemporalWorkflowEngine(c client.Client) *TemporalWorkflowEngine {
	return &TemporalWorkflowEngine{Client: c}
}

// StartIndexRepo starts a new IndexRepoWorkflow run. The workflow ID is
// derived from repoID so a second full-index request against a repo
// already indexing attaches to the existing run instead of starting a
// duplicate (WorkflowExecutionAlreadyStarted is treated as success).
func (e *TemporalWorkflowEngine) StartIndexRepo(ctx context.Context, repoID string, req ports.IndexRepoRequest) (string, error) {
	workflowID := fmt.Sprintf("index-repo-%s", repoID)
	opts := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueLight,
	}
	input := IndexRepoWorkflowInput{
		OrgID:     req.OrgID,
		RepoID:    repoID,
		GitURL:    req.GitURL,
		LocalPath: req.LocalPath,
		Ref:       req.Ref,
	}
	run, err := e.Client.ExecuteWorkflow(ctx, opts, IndexRepoWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start indexRepo workflow: %w", err)
	}
	return run.GetID(), nil
}

// StartIncrementalIndex starts the long-lived per-repo debounce workflow
// if it isn't already running. Workflow IDs are deterministic per repo so
// this is safe to call once at repo-setup time and otherwise rely on
// SignalPush's signal-with-start to lazily bring it up.
func (e *TemporalWorkflowEngine) StartIncrementalIndex(ctx context.Context, repoID string) (string, error) {
	workflowID := incrementalWorkflowIDPrefix + repoID
	opts := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueLight,
	}
	input := IncrementalIndexWorkflowInput{RepoID: repoID, WorkflowID: workflowID}
	run, err := e.Client.ExecuteWorkflow(ctx, opts, IncrementalIndexWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start incrementalIndex workflow: %w", err)
	}
	return run.GetID(), nil
}

// SignalPush delivers one push event to the repo's debounce workflow,
// starting it first via signal-with-start if it isn't running yet — the
// idempotency property  calls out as part of the durable
// -execution contract: a webhook retry or an out-of-order delivery never
// produces two debounce loops for the same repo.
func (e *TemporalWorkflowEngine) SignalPush(ctx context.Context, workflowID string, push ports.PushSignal) error {
	opts := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: QueueLight,
	}
	repoID := strings.TrimPrefix(workflowID, incrementalWorkflowIDPrefix)
	input := IncrementalIndexWorkflowInput{RepoID: repoID, WorkflowID: workflowID}
	_, err := e.Client.SignalWithStartWorkflow(ctx, workflowID, SignalPush, push, opts, IncrementalIndexWorkflow, input)
	if err != nil {
		return fmt.Errorf("signal push: %w", err)
	}
	return nil
}

// QueryProgress reads the getProgress query from a running workflow.
func (e *TemporalWorkflowEngine) QueryProgress(ctx context.Context, workflowID string) (ports.Progress, error) {
	resp, err := e.Client.QueryWorkflow(ctx, workflowID, "", QueryProgress)
	if err != nil {
		return ports.Progress{}, fmt.Errorf("query progress: %w", err)
	}
	var progress ports.Progress
	if err := resp.Get(&progress); err != nil {
		return ports.Progress{}, fmt.Errorf("decode progress query result: %w", err)
	}
	return progress, nil
}
