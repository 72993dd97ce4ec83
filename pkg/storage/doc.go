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

// Package storage provides storage backend abstractions for Cartograph.
//
// This package defines the Backend interface used by the graph, relational,
// cache, and vector-index ports implementations. The abstraction lets the
// same pkg/ports surface run against either a local embedded database or a
// shared cluster deployment.
//
// # Available Backends
//
// The package provides these backend implementations:
//
//   - EmbeddedBackend: local CozoDB instance for standalone, single-node use
//   - PostgresStore: relational pipeline-run tracking over lib/pq
//   - RedisStore: locks, debounce cursors, and fire-and-forget log buffers
//   - CozoVectorIndex: HNSW nearest-neighbor search over entity embeddings
//
// # Quick Start
//
// Create an embedded backend and execute queries:
//
//	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",
//	    Engine:    "rocksdb",
//	    ProjectID: "myproject",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	// Initialize schema
//	if err := backend.EnsureSchema(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Execute a query
//	result, err := backend.Query(ctx, `
//	    ?[name, file_path] := *cartograph_entity{name, file_path}
//	    :limit 10
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range result.Rows {
//	    fmt.Printf("%s in %s\n", row[0], row[1])
//	}
//
// # Schema Initialization
//
// Before indexing a repo, initialize the Cartograph schema:
//
//	// Create all Cartograph tables (idempotent)
//	err := backend.EnsureSchema()
//
//	// Create the HNSW index for semantic search
//	err := backend.CreateHNSWIndex()
//
// The schema includes tables for:
//   - Entities of every graph.Kind (files, functions, types, classes, ...)
//   - Typed edges between entities (calls, imports, implements, ...)
//   - Embeddings, justifications, domain ontology, feature aggregation
//   - Health reports, ADRs, and the incremental-index event log
//
// # Query vs Execute
//
// Use Query for read operations and Execute for mutations:
//
//	// Read-only query (uses RunReadOnly internally)
//	result, err := backend.Query(ctx, `?[count(id)] := *cartograph_entity{id}`)
//
//	// Mutation (uses Run internally)
//	err := backend.Execute(ctx, `:rm cartograph_entity { id: "fn123" }`)
//
// # Configuration
//
// EmbeddedConfig controls the backend behavior:
//
//	config := storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",  // Where to store CozoDB data
//	    Engine:    "rocksdb",        // Storage engine: mem, sqlite, rocksdb
//	    ProjectID: "myproject",      // Namespaces data directory
//	}
//
// Default values if not specified:
//   - DataDir: ~/.cartograph/data/<project_id>
//   - Engine: "rocksdb" (recommended for production)
//
// # Thread Safety
//
// EmbeddedBackend is safe for concurrent use. Read operations use a read
// lock while write operations use an exclusive lock, allowing concurrent
// reads but exclusive writes.
//
// # Direct Database Access
//
// For advanced operations, access the underlying CozoDB instance:
//
//	db := backend.DB()
//	result, err := db.Run(`::relations`, nil)  // List all relations
//
// Use with caution - prefer the Backend interface methods for normal operations.
package storage
