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

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// PostgresStore implements ports.RelationalStore over a *sql.DB using the
// lib/pq driver. Connection setup follows the Open()/PingContext pattern
// used elsewhere in the corpus for Postgres-backed services: a bounded
// pool with a startup ping so a bad DSN fails fast instead of surfacing on
// the first query.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore opens a connection pool against dsn and verifies
// connectivity. The returned store must be closed by the caller.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreatePipelineRun inserts a new pipeline_runs row with its steps seeded
// to pending, in the order graph.OrderedSteps defines.
func (s *PostgresStore) CreatePipelineRun(ctx context.Context, run graph.PipelineRun) error {
	steps := make([]graph.PipelineStep, 0, len(graph.OrderedSteps))
	for _, name := range graph.OrderedSteps {
		steps = append(steps, graph.PipelineStep{Name: name, Status: graph.StepPending})
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal pipeline steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, org_id, repo_id, workflow_id, run_kind, status, steps, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, run.ID, run.OrgID, run.RepoID, run.WorkflowID, run.RunKind, run.Status, stepsJSON, run.StartedAt)
	if err != nil {
		return fmt.Errorf("create pipeline run: %w", err)
	}
	return nil
}

// UpdatePipelineStep merges a single step's status/timestamps/error into
// the run's steps array, reading-modifying-writing inside one statement's
// worth of Go logic rather than a JSONB patch, since graph.PipelineStep is
// small and runs are single-writer per workflow execution.
func (s *PostgresStore) UpdatePipelineStep(ctx context.Context, runID string, step graph.PipelineStep) error {
	run, err := s.GetPipelineRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("pipeline run %s not found", runID)
	}

	updated := false
	for i := range run.Steps {
		if run.Steps[i].Name == step.Name {
			run.Steps[i] = step
			updated = true
			break
		}
	}
	if !updated {
		run.Steps = append(run.Steps, step)
	}

	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal pipeline steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE pipeline_runs SET steps = $2 WHERE id = $1`, runID, stepsJSON)
	if err != nil {
		return fmt.Errorf("update pipeline step: %w", err)
	}
	return nil
}

// SetPipelineRunStatus updates a run's terminal status and optional error,
// stamping finished_at when the status is no longer in-flight.
func (s *PostgresStore) SetPipelineRunStatus(ctx context.Context, runID string, status graph.RepoStatus, lastErr string) error {
	finishedAt := sql.NullTime{}
	if status == graph.RepoStatusReady || status == graph.RepoStatusError || status == graph.RepoStatusEmbedFailed || status == graph.RepoStatusJustifyFailed {
		finishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET status = $2, last_error = $3, finished_at = $4 WHERE id = $1
	`, runID, status, lastErr, finishedAt)
	if err != nil {
		return fmt.Errorf("set pipeline run status: %w", err)
	}
	return nil
}

// GetPipelineRun fetches a single run by ID, returning nil with no error
// if it does not exist.
func (s *PostgresStore) GetPipelineRun(ctx context.Context, runID string) (*graph.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, repo_id, workflow_id, run_kind, status, last_error, steps, started_at, finished_at
		FROM pipeline_runs WHERE id = $1
	`, runID)
	return scanPipelineRun(row)
}

// GetLatestPipelineRun fetches the most recently started run for repoID.
func (s *PostgresStore) GetLatestPipelineRun(ctx context.Context, repoID string) (*graph.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, repo_id, workflow_id, run_kind, status, last_error, steps, started_at, finished_at
		FROM pipeline_runs WHERE repo_id = $1 ORDER BY started_at DESC LIMIT 1
	`, repoID)
	return scanPipelineRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPipelineRun(row rowScanner) (*graph.PipelineRun, error) {
	var (
		run        graph.PipelineRun
		stepsJSON  []byte
		lastErr    sql.NullString
		finishedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.OrgID, &run.RepoID, &run.WorkflowID, &run.RunKind, &run.Status,
		&lastErr, &stepsJSON, &run.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan pipeline run: %w", err)
	}
	run.LastError = lastErr.String
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	if err := json.Unmarshal(stepsJSON, &run.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline steps: %w", err)
	}
	return &run, nil
}

// PipelineRunsSchema is the DDL for the pipeline_runs table, applied by
// whatever migration tooling the deployment uses (this module does not
// embed a migration runner).
const PipelineRunsSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id           TEXT PRIMARY KEY,
	org_id       TEXT NOT NULL,
	repo_id      TEXT NOT NULL,
	workflow_id  TEXT NOT NULL,
	run_kind     TEXT NOT NULL,
	status       TEXT NOT NULL,
	last_error   TEXT,
	steps        JSONB NOT NULL DEFAULT '[]',
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS pipeline_runs_repo_id_idx ON pipeline_runs (repo_id, started_at DESC);
`
