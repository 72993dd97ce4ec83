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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/graph"
)

func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresStore{db: db}, mock
}

func TestPostgresStore_CreatePipelineRun(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec("INSERT INTO pipeline_runs").WillReturnResult(sqlmock.NewResult(1, 1))

	run := graph.PipelineRun{
		ID:         "run-1",
		OrgID:      "org-1",
		RepoID:     "repo-1",
		WorkflowID: "wf-1",
		RunKind:    "full",
		Status:     graph.RepoStatusIndexing,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.CreatePipelineRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPipelineRunNotFound(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectQuery("SELECT .* FROM pipeline_runs").WillReturnRows(
		sqlmock.NewRows([]string{"id", "org_id", "repo_id", "workflow_id", "run_kind", "status", "last_error", "steps", "started_at", "finished_at"}),
	)

	run, err := store.GetPipelineRun(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, run)
}

func TestPostgresStore_GetPipelineRunFound(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	rows := sqlmock.NewRows([]string{"id", "org_id", "repo_id", "workflow_id", "run_kind", "status", "last_error", "steps", "started_at", "finished_at"}).
		AddRow("run-1", "org-1", "repo-1", "wf-1", "full", "indexing", nil, []byte(`[]`), time.Now().UTC(), nil)
	mock.ExpectQuery("SELECT .* FROM pipeline_runs").WillReturnRows(rows)

	run, err := store.GetPipelineRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, "repo-1", run.RepoID)
}

func TestPostgresStore_SetPipelineRunStatus(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec("UPDATE pipeline_runs SET status").WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetPipelineRunStatus(context.Background(), "run-1", graph.RepoStatusReady, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
