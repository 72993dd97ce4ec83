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
	"os"
	"path/filepath"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/kraklabs/cartograph/pkg/config"
	"github.com/kraklabs/cartograph/pkg/embedding"
	"github.com/kraklabs/cartograph/pkg/graphanalysis"
	"github.com/kraklabs/cartograph/pkg/incremental"
	"github.com/kraklabs/cartograph/pkg/ingestion"
	"github.com/kraklabs/cartograph/pkg/justify"
	"github.com/kraklabs/cartograph/pkg/llm"
	"github.com/kraklabs/cartograph/pkg/ontology"
	"github.com/kraklabs/cartograph/pkg/pipelinerun"
	"github.com/kraklabs/cartograph/pkg/ports"
	"github.com/kraklabs/cartograph/pkg/storage"
	"github.com/kraklabs/cartograph/pkg/workflows"
)

// Container owns every long-lived handle cmd/cartograph worker holds open
// for the life of the process: the embedded graph/vector backend, the
// relational and cache stores, the LLM/embedding providers, and the
// Temporal client the two worker pollers run against. This generalizes
// InitProject/OpenProject (which only ever opened the embedded backend) to
// own every port's lazily initialized global client handle in one place.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Backend         *storage.EmbeddedBackend
	GraphStore      ports.GraphStore
	VectorIndex     ports.VectorIndex
	RelationalStore ports.RelationalStore
	CacheStore      ports.CacheStore

	EmbeddingProvider embedding.Provider
	LLMProvider       llm.Provider

	TemporalClient client.Client
	Activities     *workflows.Activities
}

// NewContainer opens every backend cfg names and wires the engines and
// Activities struct cmd/cartograph worker registers with Temporal.
// RelationalStore/CacheStore/Temporal are optional: a DSN/URL/host-port left
// empty skips that connection, so `cartograph index`/`status`/`query`
// (which never touch Postgres, Redis, or Temporal) can share this
// constructor with `cartograph worker` without requiring infrastructure
// they don't use.
func NewContainer(ctx context.Context, cfg *config.Config, dataDir string, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir:   dataDir,
		Engine:    "rocksdb",
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("open embedded backend: %w", err)
	}
	if err := backend.EnsureSchema(); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := backend.CreateHNSWIndex(); err != nil {
		logger.Warn("hnsw.index.create.warning", "err", err)
	}

	c := &Container{
		Config:      cfg,
		Logger:      logger,
		Backend:     backend,
		GraphStore:  storage.NewCozoGraphStore(backend),
		VectorIndex: storage.NewCozoVectorIndex(backend),
	}

	if cfg.Postgres.DSN != "" {
		rel, err := storage.OpenPostgresStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		c.RelationalStore = rel
	}

	if cfg.Redis.URL != "" {
		cache, err := storage.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		c.CacheStore = cache
	}

	c.EmbeddingProvider = newEmbeddingProvider(cfg.Embedding, logger)

	if cfg.LLM.Enabled {
		provider, err := llm.NewProvider(llm.ProviderConfig{
			Type:         "openai",
			BaseURL:      cfg.LLM.BaseURL,
			APIKey:       cfg.LLM.APIKey,
			DefaultModel: cfg.LLM.Model,
		})
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("construct llm provider: %w", err)
		}
		c.LLMProvider = provider
	}

	if cfg.Temporal.HostPort != "" {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("dial temporal: %w", err)
		}
		c.TemporalClient = tc
	}

	c.Activities = c.buildActivities(cfg, logger)

	return c, nil
}

// newEmbeddingProvider maps a config.EmbeddingConfig onto the concrete
// embedding.Provider it names.
func newEmbeddingProvider(cfg config.EmbeddingConfig, logger *slog.Logger) embedding.Provider {
	switch cfg.Provider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.BaseURL, cfg.Model, logger)
	case "nomic":
		return embedding.NewNomicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	case "openai":
		return embedding.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	default:
		return embedding.NewMockProvider(768)
	}
}

// buildActivities wires every engine pkg/workflows.Activities needs. A nil
// RelationalStore/LLMProvider propagates into a nil Tracker/JustifyEngine —
// the pkg/workflows activities that use them treat a nil Tracker or
// JustifyEngine as "skip this optional step" rather than panicking,
// matching how `cartograph worker` can run without Postgres or an LLM
// configured and still perform structural indexing/embedding.
func (c *Container) buildActivities(cfg *config.Config, logger *slog.Logger) *workflows.Activities {
	fullIndexer := NewFullIndexerAdapter(ingestion.Config{
		IngestionConfig: ingestion.IngestionConfig{
			ParserMode:           ingestion.ParserMode(cfg.Indexing.ParserMode),
			EmbeddingProvider:    cfg.Embedding.Provider,
			MaxFileSizeBytes:     cfg.Indexing.MaxFileSize,
			MaxCodeTextBytes:     cfg.Indexing.MaxBodyChars,
			ExcludeGlobs:         cfg.Indexing.Exclude,
			BatchTargetMutations: cfg.Indexing.BatchTarget,
			Concurrency:          ingestion.ConcurrencyConfig{ParseWorkers: 4, EmbedWorkers: cfg.Indexing.EmbedWorkers},
		},
	}, c.Backend, logger)

	gitClient := ingestion.NewGitClient(logger)

	reindexParser := ingestion.NewTreeSitterParser(logger)
	if cfg.Indexing.MaxBodyChars > 0 {
		reindexParser.SetMaxCodeTextSize(cfg.Indexing.MaxBodyChars)
	}
	reindexer := ingestion.NewLocalReindexer(reindexParser, cfg.Indexing.MaxFileSize, logger)

	var tracker *pipelinerun.Tracker
	if c.RelationalStore != nil {
		tracker = pipelinerun.NewTracker(c.RelationalStore, c.CacheStore, logger)
	}

	var justifyEngine *justify.Engine
	if c.LLMProvider != nil {
		justifyEngine = justify.NewEngine(c.GraphStore, c.LLMProvider, logger)
	}

	incrementalEngine := incremental.NewEngine(gitClient, c.GraphStore, c.VectorIndex, c.CacheStore, reindexer, c.EmbeddingProvider, logger)

	return &workflows.Activities{
		Git:               gitClient,
		FullIndexer:       fullIndexer,
		GraphStore:        c.GraphStore,
		RelationalStore:   c.RelationalStore,
		Tracker:           tracker,
		StructuralEngine:  graphanalysis.NewEngine(c.GraphStore, graphanalysis.DefaultBlastRadiusThresholds),
		OntologyEngine:    ontology.NewEngine(c.GraphStore),
		EmbeddingEngine:   embedding.NewEngine(c.GraphStore, c.VectorIndex, c.EmbeddingProvider, logger),
		JustifyEngine:     justifyEngine,
		IncrementalEngine: incrementalEngine,
		PatternEngine:     graphanalysis.NewPatternEngine(c.GraphStore, graphanalysis.DefaultBlastRadiusThresholds),
		Logger:            logger,
	}
}

// NewWorkers builds the heavy/light Temporal pollers over this Container's
// Activities (pkg/workflows.NewWorkers), ready for cmd/cartograph worker to
// hand to workflows.RunWorkers.
func (c *Container) NewWorkers() (heavy, light worker.Worker, err error) {
	if c.TemporalClient == nil {
		return nil, nil, fmt.Errorf("temporal client not configured")
	}
	heavy, light = workflows.NewWorkers(c.TemporalClient, c.Activities)
	return heavy, light, nil
}

// Close releases every handle the Container opened, in reverse order of
// acquisition. Safe to call on a partially constructed Container (as
// NewContainer does on its own error paths).
func (c *Container) Close() error {
	var lastErr error
	if c.TemporalClient != nil {
		c.TemporalClient.Close()
	}
	if c.RelationalStore != nil {
		if err := c.RelationalStore.Close(); err != nil {
			lastErr = err
		}
	}
	if closer, ok := c.CacheStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			lastErr = err
		}
	}
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// DataDir resolves the on-disk location of a project's embedded database:
// ~/.cartograph/data/<project_id>.
func DataDir(projectID string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".cartograph", "data", projectID), nil
}
