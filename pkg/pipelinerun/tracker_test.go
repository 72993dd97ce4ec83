// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipelinerun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
)

type fakeRelationalStore struct {
	runs map[string]*graph.PipelineRun
}

func newFakeRelationalStore() *fakeRelationalStore {
	return &fakeRelationalStore{runs: map[string]*graph.PipelineRun{}}
}

func (f *fakeRelationalStore) CreatePipelineRun(ctx context.Context, run graph.PipelineRun) error {
	r := run
	for _, name := range graph.OrderedSteps {
		r.Steps = append(r.Steps, graph.PipelineStep{Name: name, Status: graph.StepPending})
	}
	f.runs[r.ID] = &r
	return nil
}

func (f *fakeRelationalStore) UpdatePipelineStep(ctx context.Context, runID string, step graph.PipelineStep) error {
	run, ok := f.runs[runID]
	if !ok {
		return errors.New("run not found")
	}
	for i := range run.Steps {
		if run.Steps[i].Name == step.Name {
			run.Steps[i] = step
			return nil
		}
	}
	run.Steps = append(run.Steps, step)
	return nil
}

func (f *fakeRelationalStore) SetPipelineRunStatus(ctx context.Context, runID string, status graph.RepoStatus, lastError string) error {
	run, ok := f.runs[runID]
	if !ok {
		return errors.New("run not found")
	}
	run.Status = status
	run.LastError = lastError
	now := time.Now().UTC()
	run.FinishedAt = &now
	return nil
}

func (f *fakeRelationalStore) GetPipelineRun(ctx context.Context, runID string) (*graph.PipelineRun, error) {
	return f.runs[runID], nil
}

func (f *fakeRelationalStore) GetLatestPipelineRun(ctx context.Context, repoID string) (*graph.PipelineRun, error) {
	var latest *graph.PipelineRun
	for _, r := range f.runs {
		if r.RepoID != repoID {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeRelationalStore) Close() error { return nil }

type fakeCacheStore struct {
	logs map[string][]string
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{logs: map[string][]string{}}
}

func (f *fakeCacheStore) SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (f *fakeCacheStore) Release(ctx context.Context, key string) error     { return nil }
func (f *fakeCacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeCacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (f *fakeCacheStore) AppendLog(ctx context.Context, repoID, line string) error {
	f.logs[repoID] = append(f.logs[repoID], line)
	return nil
}

func (f *fakeCacheStore) DrainLog(ctx context.Context, repoID string) ([]string, error) {
	lines := f.logs[repoID]
	delete(f.logs, repoID)
	return lines, nil
}

func TestTrackerStepAndFinishDrainsLog(t *testing.T) {
	relational := newFakeRelationalStore()
	cache := newFakeCacheStore()
	tracker := NewTracker(relational, cache, nil)
	ctx := context.Background()

	run := graph.PipelineRun{ID: "run1", RepoID: "repo1", RunKind: "full", Status: graph.RepoStatusIndexing, StartedAt: time.Now().UTC()}
	if err := tracker.Start(ctx, run); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := tracker.Step(ctx, "run1", "repo1", graph.StepClone, graph.StepRunning, nil); err != nil {
		t.Fatalf("Step running: %v", err)
	}
	if err := tracker.Step(ctx, "run1", "repo1", graph.StepClone, graph.StepDone, nil); err != nil {
		t.Fatalf("Step done: %v", err)
	}
	if len(cache.logs["repo1"]) != 2 {
		t.Fatalf("expected 2 buffered log lines before Finish, got %d", len(cache.logs["repo1"]))
	}

	if err := tracker.Finish(ctx, "run1", "repo1", graph.RepoStatusReady, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, ok := cache.logs["repo1"]; ok {
		t.Fatalf("expected log buffer drained after Finish, still present: %v", cache.logs["repo1"])
	}

	latest, err := tracker.Latest(ctx, "repo1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.Status != graph.RepoStatusReady {
		t.Fatalf("expected latest run status ready, got %+v", latest)
	}
	step := latest.StepByName(graph.StepClone)
	if step == nil || step.Status != graph.StepDone {
		t.Fatalf("expected clone step done, got %+v", step)
	}
}

func TestSummarizeFillsPendingForUntrackedSteps(t *testing.T) {
	run := &graph.PipelineRun{
		ID:        "run2",
		RepoID:    "repo2",
		RunKind:   "full",
		Status:    graph.RepoStatusIndexing,
		StartedAt: time.Now().UTC(),
		Steps: []graph.PipelineStep{
			{Name: graph.StepClone, Status: graph.StepDone},
		},
	}
	summary := Summarize(run)
	if len(summary.Steps) != len(graph.OrderedSteps) {
		t.Fatalf("expected %d steps, got %d", len(graph.OrderedSteps), len(summary.Steps))
	}
	var sawPending bool
	for _, s := range summary.Steps {
		if s.Name == graph.StepParse && s.Status == graph.StepPending {
			sawPending = true
		}
	}
	if !sawPending {
		t.Fatalf("expected untracked step %q reported pending, got %+v", graph.StepParse, summary.Steps)
	}
}
