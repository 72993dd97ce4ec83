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
	flag "github.com/spf13/pflag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/cartograph/pkg/config"
	"github.com/kraklabs/cartograph/internal/bootstrap"
	"github.com/kraklabs/cartograph/pkg/workflows"
)

// runWorker executes the 'worker' CLI command: it opens every backend the
// project's configuration names (CozoDB always, Postgres/Redis/LLM/Temporal
// when configured) and runs the heavy and light Temporal task-queue
// pollers until interrupted. This is the durable half of indexing — the
// IndexRepoWorkflow and IncrementalIndexWorkflow registered by
// pkg/workflows only make progress while a worker process is listening.
//
// Flags:
//   - --debug: Enable debug logging (default: false)
func runWorker(args []string, configPath string) {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph worker [options]

Runs the Temporal activity and workflow pollers for this project. Requires
temporal.host_port to be set in .cartograph/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Temporal.HostPort == "" {
		fmt.Fprintln(os.Stderr, "Error: worker requires temporal.host_port to be configured")
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	dataDir, err := bootstrap.DataDir(cfg.ProjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	container, err := bootstrap.NewContainer(context.Background(), cfg, dataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer container.Close()

	heavy, light, err := container.NewWorkers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("worker.start", "project_id", cfg.ProjectID, "temporal", cfg.Temporal.HostPort)

	if err := workflows.RunWorkers(heavy, light); err != nil {
		fmt.Fprintf(os.Stderr, "Error: worker stopped: %v\n", err)
		os.Exit(1)
	}
	logger.Info("worker.stopped")
}
