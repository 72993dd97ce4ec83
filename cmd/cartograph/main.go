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

// Package main implements the cartograph CLI: local indexing, querying, and
// the durable worker process that runs the Temporal-backed incremental
// pipeline.
//
// Usage:
//
//	cartograph init                       Create .cartograph/project.yaml
//	cartograph index [--full|--incremental]  Index the current repository
//	cartograph worker                     Run the Temporal activity/workflow pollers
//	cartograph status [--json]            Show project status
//	cartograph query <script> [--json]    Execute a CozoScript query
//	cartograph reset                      Delete local project data
//	cartograph install-hook              Install the git post-commit hook
package main

import (
	flag "github.com/spf13/pflag"
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .cartograph/project.yaml (default: ./.cartograph/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cartograph - code intelligence engine CLI

Usage:
  cartograph <command> [options]

Commands:
  init          Create .cartograph/project.yaml configuration
  index         Index the current repository
  worker        Run the Temporal activity and workflow pollers
  status        Show project status
  query         Execute a CozoScript query
  reset         Reset local project data (destructive!)
  install-hook  Install git post-commit hook for auto-indexing
  completion    Generate shell completion script (bash, zsh, fish)

Global Options:
  --config      Path to .cartograph/project.yaml
  --version     Show version and exit

Examples:
  cartograph init                           Create configuration interactively
  cartograph index                          Index the current repository locally
  cartograph index --full                   Force full re-index
  cartograph worker                         Start the durable indexing worker
  cartograph status                         Show project status
  cartograph status --json                  Output as JSON
  cartograph query "?[name] := *cartograph_entity{name, kind: 'function'}"

Data Storage:
  Data is stored locally in ~/.cartograph/data/<project_id>/

Environment Variables:
  OLLAMA_HOST                   Ollama URL (default: http://localhost:11434)
  OLLAMA_EMBED_MODEL            Embedding model (default: nomic-embed-text)
  CARTOGRAPH_TEMPORAL_HOST_PORT Temporal frontend address (default: localhost:7233)
  CARTOGRAPH_POSTGRES_DSN       Postgres DSN for pipeline run bookkeeping
  CARTOGRAPH_REDIS_URL          Redis URL for caching and debounce state

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cartograph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, *configPath)
	case "worker":
		runWorker(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "query":
		runQuery(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	case "install-hook":
		runInstallHook(cmdArgs, *configPath)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
