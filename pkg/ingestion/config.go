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

package ingestion

// RepoSource identifies where a repository's content comes from: a git
// remote to clone, or a path already present on disk.
type RepoSource struct {
	Type  string // "git_url" or "local_path"
	Value string
}

// Config is the top-level configuration for one LocalPipeline run.
type Config struct {
	// OrgID scopes the indexed data for multi-tenant deployments. Standalone
	// single-user use can leave this empty.
	OrgID string

	ProjectID       string
	RepoSource      RepoSource
	IngestionConfig IngestionConfig

	// IndexVersion overrides the generated run ID used to stamp every
	// entity's index_version column. Left empty, Run derives one from the
	// project ID and start time (generateRunID); set it explicitly when the
	// caller already has a natural version to shadow-swap against, such as
	// a workflow-provided head commit SHA.
	IndexVersion string
}

// ConcurrencyConfig bounds the worker pools used during parsing and
// embedding generation.
type ConcurrencyConfig struct {
	ParseWorkers int
	EmbedWorkers int
}

// IngestionConfig controls parsing, embedding, and storage behavior.
type IngestionConfig struct {
	ParserMode        ParserMode
	EmbeddingProvider string // "openai", "nomic", "ollama", "mock"
	MaxFileSizeBytes  int64
	MaxCodeTextBytes  int64
	ExcludeGlobs      []string
	Concurrency       ConcurrencyConfig
	CheckpointPath    string
	LocalDataDir      string
	LocalEngine       string // "rocksdb", "sqlite", "mem"

	// BatchTargetMutations caps the number of Datalog mutations per batch
	// sent to the graph store, balancing transaction overhead against
	// write latency.
	BatchTargetMutations int

	// WriteMode selects bulk (single multi-entity upsert) vs per_statement
	// (one upsert per entity) write strategy.
	WriteMode string
}

// DefaultConfig returns the recommended IngestionConfig for a standalone,
// single-node deployment.
func DefaultConfig() IngestionConfig {
	return IngestionConfig{
		ParserMode:        ParserModeAuto,
		EmbeddingProvider: "mock",
		MaxFileSizeBytes:  1024 * 1024,
		MaxCodeTextBytes:  100 * 1024,
		ExcludeGlobs: []string{
			"node_modules/**",
			".git/**",
			"vendor/**",
		},
		Concurrency: ConcurrencyConfig{
			ParseWorkers: 4,
			EmbedWorkers: 8,
		},
		LocalDataDir:         "~/.cartograph/data",
		LocalEngine:          "rocksdb",
		BatchTargetMutations: 2000,
		WriteMode:            "bulk",
	}
}
