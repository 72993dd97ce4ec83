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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/cartograph/pkg/ingestion"
	"github.com/kraklabs/cartograph/pkg/storage"
	"github.com/kraklabs/cartograph/pkg/workflows"
)

// FullIndexerAdapter satisfies pkg/workflows.FullIndexer by running
// ingestion.LocalPipeline against the Container's already-open backend.
// pkg/workflows never imports pkg/ingestion directly (that would put the
// Temporal-facing core in the business of knowing how LocalPipeline is
// built), so this adapter lives on the bootstrap side, the one package
// that is allowed to depend on both.
type FullIndexerAdapter struct {
	base    ingestion.Config
	backend *storage.EmbeddedBackend
	logger  *slog.Logger
}

// NewFullIndexerAdapter builds an adapter that runs every full-index
// request through base's ingestion settings, against the shared backend
// rather than opening a second RocksDB handle on the same data directory.
func NewFullIndexerAdapter(base ingestion.Config, backend *storage.EmbeddedBackend, logger *slog.Logger) *FullIndexerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FullIndexerAdapter{base: base, backend: backend, logger: logger}
}

var _ workflows.FullIndexer = (*FullIndexerAdapter)(nil)

// RunFullIndex fills in the per-request fields (org, repo, checkout path,
// and the index version Temporal's workflow wants every entity stamped
// with for the shadow-swap) on top of the adapter's base ingestion
// settings, then runs one LocalPipeline pass against the shared backend.
func (a *FullIndexerAdapter) RunFullIndex(ctx context.Context, req workflows.FullIndexRequest) (workflows.FullIndexResult, error) {
	cfg := a.base
	cfg.OrgID = req.OrgID
	cfg.ProjectID = req.RepoID
	cfg.IndexVersion = req.IndexVersion
	cfg.RepoSource = ingestion.RepoSource{Type: "local_path", Value: req.LocalPath}

	pipeline := ingestion.NewLocalPipelineForBackend(cfg, a.backend, a.logger)
	defer pipeline.Close()

	result, err := pipeline.Run(ctx)
	if err != nil {
		return workflows.FullIndexResult{}, fmt.Errorf("run local pipeline: %w", err)
	}

	return workflows.FullIndexResult{
		FilesProcessed:  result.FilesProcessed,
		EntitiesWritten: result.FunctionsExtracted + result.TypesExtracted + result.FilesProcessed,
		EdgesWritten:    result.DefinesEdges + result.CallsEdges,
	}, nil
}
