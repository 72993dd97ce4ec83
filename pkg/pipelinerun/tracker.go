// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipelinerun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// Tracker wraps a RelationalStore and CacheStore with the bookkeeping
// policy a pipeline run needs: seed the run, record each step transition,
// and archive the run's progress log once it finishes.
type Tracker struct {
	relational ports.RelationalStore
	cache      ports.CacheStore
	logger     *slog.Logger
}

// NewTracker builds a Tracker. logger may be nil, in which case
// slog.Default() is used.
func NewTracker(relational ports.RelationalStore, cache ports.CacheStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{relational: relational, cache: cache, logger: logger}
}

// Start seeds a new PipelineRun with all of graph.OrderedSteps pending.
func (t *Tracker) Start(ctx context.Context, run graph.PipelineRun) error {
	if err := t.relational.CreatePipelineRun(ctx, run); err != nil {
		return fmt.Errorf("start pipeline run: %w", err)
	}
	t.logger.Info("pipelinerun.start", "repo_id", run.RepoID, "run_id", run.ID, "kind", run.RunKind)
	return nil
}

// Step records one step's transition and appends a progress line to the
// repo's fire-and-forget log buffer. A failure to append the log line is
// swallowed (logged locally, not returned) since losing one progress line
// must never fail the step it's describing.
func (t *Tracker) Step(ctx context.Context, runID, repoID string, name graph.StepName, status graph.StepStatus, stepErr error) error {
	now := time.Now().UTC()
	step := graph.PipelineStep{Name: name, Status: status}
	switch status {
	case graph.StepRunning:
		step.StartedAt = &now
	case graph.StepDone, graph.StepError, graph.StepSkipped:
		step.FinishedAt = &now
	}
	if stepErr != nil {
		step.ErrorMessage = stepErr.Error()
	}

	if err := t.relational.UpdatePipelineStep(ctx, runID, step); err != nil {
		return fmt.Errorf("update pipeline step %s: %w", name, err)
	}

	line := fmt.Sprintf("%s step=%s status=%s", now.Format(time.RFC3339), name, status)
	if stepErr != nil {
		line += " error=" + stepErr.Error()
	}
	if err := t.cache.AppendLog(ctx, repoID, line); err != nil {
		t.logger.Warn("pipelinerun.append_log.failed", "repo_id", repoID, "run_id", runID, "err", err)
	}
	return nil
}

// Finish sets the run's terminal status and archives the repo's buffered
// progress log: the fire-and-forget logging pattern means AppendLog never
// blocks a step on a durable write, so the durable record is produced
// here, once, at the point the run stops changing. The
// archive target is the structured log sink every other package in this
// repo already writes through (log/slog), not a new database table — the
// buffer exists for operators tailing a run in progress, and a completed
// run's lines belong in the same place as everything else queried via log
// aggregation.
func (t *Tracker) Finish(ctx context.Context, runID, repoID string, status graph.RepoStatus, finalErr error) error {
	lastError := ""
	if finalErr != nil {
		lastError = finalErr.Error()
	}
	if err := t.relational.SetPipelineRunStatus(ctx, runID, status, lastError); err != nil {
		return fmt.Errorf("set pipeline run status: %w", err)
	}

	lines, err := t.cache.DrainLog(ctx, repoID)
	if err != nil {
		t.logger.Warn("pipelinerun.drain_log.failed", "repo_id", repoID, "run_id", runID, "err", err)
		return nil
	}
	t.logger.Info("pipelinerun.archive", "repo_id", repoID, "run_id", runID, "status", status, "lines", lines)
	return nil
}

// Latest returns the most recent run for repoID, or nil if none exists.
func (t *Tracker) Latest(ctx context.Context, repoID string) (*graph.PipelineRun, error) {
	run, err := t.relational.GetLatestPipelineRun(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("get latest pipeline run: %w", err)
	}
	return run, nil
}
