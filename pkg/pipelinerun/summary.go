// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipelinerun

import (
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// Summary is the flat, JSON-friendly view of a PipelineRun the status CLI
// command renders, read from a tracked PipelineRun rather than a raw
// cozodb-count-based report.
type Summary struct {
	RunID      string           `json:"run_id"`
	RepoID     string           `json:"repo_id"`
	RunKind    string           `json:"run_kind"`
	Status     graph.RepoStatus `json:"status"`
	LastError  string           `json:"last_error,omitempty"`
	Steps      []StepSummary    `json:"steps"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// StepSummary is one step's flattened view, with Duration precomputed in
// milliseconds so
// the CLI doesn't need to do timestamp math.
type StepSummary struct {
	Name     graph.StepName   `json:"name"`
	Status   graph.StepStatus `json:"status"`
	Duration int64            `json:"duration_ms"`
	Error    string           `json:"error,omitempty"`
}

// Summarize flattens a PipelineRun for display, filling in every step
// named by graph.OrderedSteps even if the run never recorded one (reported
// as pending) so the CLI always shows the full fixed step list.
func Summarize(run *graph.PipelineRun) Summary {
	s := Summary{
		RunID:      run.ID,
		RepoID:     run.RepoID,
		RunKind:    run.RunKind,
		Status:     run.Status,
		LastError:  run.LastError,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	for _, name := range graph.OrderedSteps {
		step := run.StepByName(name)
		if step == nil {
			s.Steps = append(s.Steps, StepSummary{Name: name, Status: graph.StepPending})
			continue
		}
		summary := StepSummary{Name: step.Name, Status: step.Status, Error: step.ErrorMessage}
		if step.StartedAt != nil && step.FinishedAt != nil {
			summary.Duration = step.FinishedAt.Sub(*step.StartedAt).Milliseconds()
		}
		s.Steps = append(s.Steps, summary)
	}
	return s
}
