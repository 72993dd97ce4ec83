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

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cozo "github.com/kraklabs/cartograph/pkg/cozodb"
)

// EmbeddedBackend implements Backend using a local CozoDB instance.
// This is the default backend for standalone/open-source Cartograph.
type EmbeddedBackend struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// DataDir is the directory where CozoDB stores its data.
	// Defaults to ~/.cartograph/data/<project_id>
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb" for persistence.
	Engine string

	// ProjectID is used to namespace the data directory.
	ProjectID string
}

// NewEmbeddedBackend creates a new embedded CozoDB backend.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	// Set defaults
	if config.Engine == "" {
		config.Engine = "rocksdb"
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".cartograph", "data")
		if config.ProjectID != "" {
			config.DataDir = filepath.Join(config.DataDir, config.ProjectID)
		}
	}

	// Ensure data directory exists
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// Open CozoDB
	db, err := cozo.New(config.Engine, config.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("open cozodb: %w", err)
	}

	return &EmbeddedBackend{
		db: &db,
	}, nil
}

// Query executes a read-only Datalog query.
func (b *EmbeddedBackend) Query(ctx context.Context, datalog string) (*QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := b.db.RunReadOnly(datalog, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return FromNamedRows(result), nil
}

// Execute runs a Datalog mutation.
func (b *EmbeddedBackend) Execute(ctx context.Context, datalog string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := b.db.Run(datalog, nil)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	b.db.Close()
	return nil
}

// DB returns the underlying CozoDB instance for advanced operations.
// Use with caution - prefer the Backend interface methods.
func (b *EmbeddedBackend) DB() *cozo.CozoDB {
	return b.db
}

// schemaTables is the generalized, cross-language entity/edge schema.
// Unlike the v3 ingestion schema this replaces (one table per Go-specific
// kind: file/function/type/...), entities of every kind in
// graph.ValidKinds share one vertically-partitioned table set, with kind
// as a plain column - the quarantine and justification-adjacent columns
// live alongside it rather than in side tables, since every entity
// (not just functions) can be quarantined or justified.
var schemaTables = []string{
	`:create cartograph_entity {
		id: String
		=>
		org_id: String,
		repo_id: String,
		index_version: String,
		kind: String,
		name: String,
		file_path: String,
		start_line: Int,
		end_line: Int,
		language: String,
		signature: String,
		exported: Bool,
		doc: String,
		parent: String,
		body: String,
		fan_in: Int default 0,
		fan_out: Int default 0,
		risk_level: String default 'normal',
		pagerank: Float default 0.0,
		pagerank_percentile: Int default 0,
		quarantined: Bool default false,
		quarantine_reason: String default ''
	}`,
	`:create cartograph_edge {
		key: String
		=>
		from_id: String,
		to_id: String,
		kind: String,
		repo_id: String
	}`,
	`:create cartograph_embedding {
		entity_id: String
		=>
		repo_id: String,
		embedding: <F32; 1536>
	}`,
	`:create cartograph_justification {
		entity_id: String
		=>
		repo_id: String,
		taxonomy: String,
		confidence: Float,
		business_purpose: String,
		domain_concepts: String,
		feature_tag: String,
		semantic_triples: String,
		compliance_tags: String,
		architectural_pattern: String,
		model_tier: String,
		model_used: String,
		quality_score: Float,
		quality_flags: String,
		body_hash: String,
		propagated_feature_tag: String,
		propagated_domain_concepts: String,
		valid_from: Float,
		valid_to: Float default 0.0
	}`,
	`:create cartograph_domain_ontology {
		repo_id: String
		=>
		terms: String,
		categories: String,
		feature_areas: String,
		generated_at: Float
	}`,
	`:create cartograph_feature_aggregation {
		repo_id: String,
		feature_tag: String
		=>
		entity_count: Int,
		entry_points: String,
		taxonomy_counts: String
	}`,
	`:create cartograph_health_report {
		repo_id: String
		=>
		risks: String,
		count_by_severity: String,
		average_confidence: Float,
		coverage: Float,
		generated_at: Float
	}`,
	`:create cartograph_adr {
		id: String
		=>
		repo_id: String,
		title: String,
		context: String,
		decision: String,
		consequences: String,
		entity_refs: String,
		feature_areas: String,
		generated_at: Float
	}`,
	`:create cartograph_index_event {
		repo_id: String,
		push_sha: String
		=>
		org_id: String,
		commit_message: String,
		event_type: String,
		files_changed: Int,
		entities_added: Int,
		entities_updated: Int,
		entities_deleted: Int,
		edges_repaired: Int,
		embeddings_updated: Int,
		cascade_status: String,
		cascade_entities: Int,
		duration_ms: Int,
		workflow_id: String,
		extraction_errors: String,
		created_at: Float
	}`,
}

// EnsureSchema creates the Cartograph tables if they don't exist.
// This is idempotent and safe to call multiple times.
func (b *EmbeddedBackend) EnsureSchema() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, table := range schemaTables {
		if _, err := b.db.Run(table, nil); err != nil {
			// CozoDB returns an error whose message contains "already exists"
			// for a :create on a relation that is already there; every other
			// error is swallowed here too since EnsureSchema is best-effort
			// and callers surface real failures on the first real query.
			continue
		}
	}
	return nil
}

// CreateHNSWIndex creates the HNSW index used for semantic search over
// entity embeddings. Should be called after schema creation.
func (b *EmbeddedBackend) CreateHNSWIndex() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.db.Run(
		`::hnsw create cartograph_embedding:hnsw_idx { dim: 1536, m: 16, ef_construction: 200, fields: [embedding] }`,
		nil,
	)
	if err != nil {
		// Ignore "already exists" errors.
		return nil
	}
	return nil
}
