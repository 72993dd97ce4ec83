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

package main

import (
	"context"
	"encoding/json"
	flag "github.com/spf13/pflag"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/cartograph/pkg/config"
	"github.com/kraklabs/cartograph/internal/bootstrap"
	"github.com/kraklabs/cartograph/pkg/storage"
)

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	ProjectID      string    `json:"project_id"`
	DataDir        string    `json:"data_dir"`
	Connected      bool      `json:"connected"`
	Files          int       `json:"files"`
	Functions      int       `json:"functions"`
	Types          int       `json:"types"`
	Embeddings     int       `json:"embeddings"`
	CallEdges      int       `json:"call_edges"`
	Justifications int       `json:"justifications"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying project index
// statistics queried straight from the local CozoDB database.
//
// Flags:
//   - --json: Output results as JSON (default: false)
func runStatus(args []string, configPath string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph status [options]

Shows local project status.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if *jsonOutput {
			outputStatusJSON(&StatusResult{Connected: false, Error: err.Error(), Timestamp: time.Now()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	dataDir, err := bootstrap.DataDir(cfg.ProjectID)
	if err != nil {
		if *jsonOutput {
			outputStatusJSON(&StatusResult{ProjectID: cfg.ProjectID, Connected: false, Error: err.Error(), Timestamp: time.Now()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	result := &StatusResult{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
		Timestamp: time.Now(),
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		result.Connected = false
		result.Error = "Project not indexed yet. Run 'cartograph index' first."
		if *jsonOutput {
			outputStatusJSON(result)
		} else {
			fmt.Printf("Project '%s' not indexed yet.\n", cfg.ProjectID)
			fmt.Println("Run 'cartograph index' to index the repository.")
		}
		os.Exit(0)
	}

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir:   dataDir,
		Engine:    "rocksdb",
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		result.Connected = false
		result.Error = fmt.Sprintf("Cannot open database: %v", err)
		if *jsonOutput {
			outputStatusJSON(result)
		} else {
			fmt.Fprintf(os.Stderr, "Error: cannot open database: %v\n", err)
		}
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()

	result.Connected = true
	ctx := context.Background()

	result.Files = queryLocalKindCount(ctx, backend, "cartograph_entity", "id", "file")
	result.Functions = queryLocalKindCount(ctx, backend, "cartograph_entity", "id", "function")
	result.Types = queryLocalKindCount(ctx, backend, "cartograph_entity", "id", "type")
	result.Embeddings = queryLocalCount(ctx, backend, "cartograph_embedding", "entity_id")
	result.CallEdges = queryLocalKindCount(ctx, backend, "cartograph_edge", "key", "calls")
	result.Justifications = queryLocalCount(ctx, backend, "cartograph_justification", "entity_id")

	if *jsonOutput {
		outputStatusJSON(result)
	} else {
		printLocalStatus(result)
	}
}

// queryLocalCount counts every row of table keyed by pkField.
func queryLocalCount(ctx context.Context, backend *storage.EmbeddedBackend, table, pkField string) int {
	script := fmt.Sprintf("?[count(%s)] := *%s { %s }", pkField, table, pkField)
	return runCountQuery(ctx, backend, script)
}

// queryLocalKindCount counts rows of table whose kind column matches kind,
// the filter every unified cartograph_entity/cartograph_edge query needs
// now that one table set covers every entity and edge kind.
func queryLocalKindCount(ctx context.Context, backend *storage.EmbeddedBackend, table, pkField, kind string) int {
	script := fmt.Sprintf("?[count(%s)] := *%s { %s, kind: %q }", pkField, table, pkField, kind)
	return runCountQuery(ctx, backend, script)
}

func runCountQuery(ctx context.Context, backend *storage.EmbeddedBackend, script string) int {
	result, err := backend.Query(ctx, script)
	if err != nil {
		return 0
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0
	}
	switch v := result.Rows[0][0].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func outputStatusJSON(result *StatusResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func printLocalStatus(result *StatusResult) {
	fmt.Println("Cartograph Project Status (Local)")
	fmt.Println("==================================")
	fmt.Printf("Project ID:    %s\n", result.ProjectID)
	fmt.Printf("Data Dir:      %s\n", result.DataDir)
	fmt.Println()

	fmt.Println("Entities:")
	fmt.Printf("  Files:           %d\n", result.Files)
	fmt.Printf("  Functions:       %d\n", result.Functions)
	fmt.Printf("  Types:           %d\n", result.Types)
	fmt.Printf("  Embeddings:      %d\n", result.Embeddings)
	fmt.Printf("  Call Edges:      %d\n", result.CallEdges)
	fmt.Printf("  Justifications:  %d\n", result.Justifications)

	if result.Error != "" {
		fmt.Printf("\nWarning: %s\n", result.Error)
	}
}
