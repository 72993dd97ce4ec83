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
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kraklabs/cartograph/pkg/config"
	"github.com/kraklabs/cartograph/internal/bootstrap"
	"github.com/kraklabs/cartograph/pkg/storage"
)

func runQuery(args []string, configPath string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Add :limit to query (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph query [options] <cozoscript>

Executes a CozoScript query against the local cartograph database.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # List all functions
  cartograph query "?[name, file_path] := *cartograph_entity { name, file_path, kind: 'function' }" --limit 10

  # Search by name
  cartograph query "?[name, file_path] := *cartograph_entity { name, file_path, kind: 'function' }, regex_matches(name, '(?i)embed')"

  # Count files
  cartograph query "?[count(id)] := *cartograph_entity { id, kind: 'file' }"

  # Find callers of a function
  cartograph query "?[caller] := *cartograph_edge { from_id: caller_id, to_id: callee_id, kind: 'calls' }, *cartograph_entity { id: callee_id, name: 'NewPipeline' }, *cartograph_entity { id: caller_id, name: caller }"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: script argument required\n")
		fs.Usage()
		os.Exit(1)
	}

	script := fs.Arg(0)

	if *limit > 0 {
		script = strings.TrimSpace(script)
		if !strings.Contains(strings.ToLower(script), ":limit") {
			script = fmt.Sprintf("%s :limit %d", script, *limit)
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		reportQueryErr(err, *jsonOutput)
		os.Exit(1)
	}

	dataDir, err := bootstrap.DataDir(cfg.ProjectID)
	if err != nil {
		reportQueryErr(err, *jsonOutput)
		os.Exit(1)
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		reportQueryErr(fmt.Errorf("project '%s' not indexed yet. Run 'cartograph index' first", cfg.ProjectID), *jsonOutput)
		os.Exit(1)
	}

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir:   dataDir,
		Engine:    "rocksdb",
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		reportQueryErr(fmt.Errorf("cannot open database: %w", err), *jsonOutput)
		os.Exit(1)
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := backend.Query(ctx, script)
	if err != nil {
		reportQueryErr(fmt.Errorf("query failed: %w", err), *jsonOutput)
		os.Exit(1)
	}

	if *jsonOutput {
		outputQueryJSON(result)
	} else {
		printQueryResult(result)
	}
}

func reportQueryErr(err error, asJSON bool) {
	if asJSON {
		outputQueryError(err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func outputQueryError(err error) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]any{
		"error": err.Error(),
	})
}

func outputQueryJSON(result *storage.QueryResult) {
	output := map[string]any{
		"headers": result.Headers,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func printQueryResult(result *storage.QueryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)

	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}

	w.Flush()

	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
