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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kraklabs/cartograph/pkg/config"
	"github.com/kraklabs/cartograph/internal/bootstrap"
	"github.com/kraklabs/cartograph/pkg/ingestion"
	"github.com/kraklabs/cartograph/pkg/ports"
	"github.com/kraklabs/cartograph/pkg/workflows"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runIndex executes the 'index' CLI command.
//
// In its default, standalone mode it runs one LocalPipeline pass directly
// against the repository in the current directory. --incremental instead
// signals the repo's running Temporal
// incrementalIndex workflow with the current HEAD SHA and returns
// immediately, the mechanism the git post-commit hook installed by
// install-hook uses so a commit never blocks on a synchronous reindex.
//
// Flags:
//   - --full: Force full reindex, deleting any existing local data first
//   - --incremental: Signal the running Temporal workflow instead of indexing locally
//   - --embed-workers: Number of parallel embedding workers (default: 8)
//   - --debug: Enable debug logging (default: false)
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
func runIndex(args []string, configPath string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Delete existing local data and reindex everything from scratch")
	incremental := fs.Bool("incremental", false, "Signal the running Temporal incremental workflow instead of indexing locally")
	embedWorkers := fs.Int("embed-workers", 8, "Number of parallel embedding workers")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph index [options]

Indexes the current repository using configuration from .cartograph/project.yaml.
Data is stored locally in ~/.cartograph/data/<project_id>/

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

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	if *incremental {
		runIncrementalSignal(ctx, logger, cfg, cwd)
		return
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	dataDir, err := bootstrap.DataDir(cfg.ProjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *full {
		if err := os.RemoveAll(dataDir); err == nil {
			logger.Info("data.deleted", "path", dataDir)
		} else if !os.IsNotExist(err) {
			logger.Warn("data.delete.error", "path", dataDir, "err", err)
		}
	}

	runLocalIndex(ctx, logger, cfg, dataDir, cwd, *embedWorkers, *debug)
}

// runLocalIndex runs one LocalPipeline pass against the repository at
// repoPath, writing into the embedded database at dataDir.
func runLocalIndex(ctx context.Context, logger *slog.Logger, cfg *config.Config, dataDir, repoPath string, embedWorkers int, debug bool) {
	defaults := ingestion.DefaultConfig()
	excludeGlobs := append(defaults.ExcludeGlobs, cfg.Indexing.Exclude...)

	pipelineConfig := ingestion.Config{
		OrgID:     cfg.OrgID,
		ProjectID: cfg.ProjectID,
		RepoSource: ingestion.RepoSource{
			Type:  "local_path",
			Value: repoPath,
		},
		IngestionConfig: ingestion.IngestionConfig{
			ParserMode:           ingestion.ParserMode(cfg.Indexing.ParserMode),
			EmbeddingProvider:    cfg.Embedding.Provider,
			BatchTargetMutations: cfg.Indexing.BatchTarget,
			MaxFileSizeBytes:     cfg.Indexing.MaxFileSize,
			MaxCodeTextBytes:     cfg.Indexing.MaxBodyChars,
			LocalDataDir:         dataDir,
			LocalEngine:          "rocksdb",
			ExcludeGlobs:         excludeGlobs,
			Concurrency: ingestion.ConcurrencyConfig{
				ParseWorkers: 4,
				EmbedWorkers: embedWorkers,
			},
		},
	}

	switch cfg.Embedding.Provider {
	case "ollama":
		os.Setenv("OLLAMA_BASE_URL", cfg.Embedding.BaseURL)
		os.Setenv("OLLAMA_EMBED_MODEL", cfg.Embedding.Model)
	case "openai":
		os.Setenv("OPENAI_API_BASE", cfg.Embedding.BaseURL)
		os.Setenv("OPENAI_EMBED_MODEL", cfg.Embedding.Model)
		if cfg.Embedding.APIKey != "" {
			os.Setenv("OPENAI_API_KEY", cfg.Embedding.APIKey)
		}
	}

	pipeline, err := ingestion.NewLocalPipeline(pipelineConfig, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create pipeline: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	logger.Info("indexing.starting",
		"mode", "local",
		"project_id", cfg.ProjectID,
		"repo_path", repoPath,
		"embedding_provider", cfg.Embedding.Provider,
	)

	spinner := NewSpinner(NewProgressConfig(debug), "indexing")
	if spinner != nil {
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				case <-time.After(65 * time.Millisecond):
					_ = spinner.Add(1)
				}
			}
		}()
		defer func() { close(stop); _ = spinner.Finish() }()
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: indexing failed: %v\n", err)
		os.Exit(1)
	}

	printResult(result, dataDir)
}

// runIncrementalSignal resolves HEAD in repoPath and delivers it as a push
// signal to the repo's incrementalIndex workflow, starting the workflow
// first if it isn't running yet (SignalPush's signal-with-start).
func runIncrementalSignal(ctx context.Context, logger *slog.Logger, cfg *config.Config, repoPath string) {
	if cfg.Temporal.HostPort == "" {
		fmt.Fprintln(os.Stderr, "Error: --incremental requires temporal.host_port to be configured")
		os.Exit(1)
	}

	dataDir, err := bootstrap.DataDir(cfg.ProjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	container, err := bootstrap.NewContainer(ctx, cfg, dataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer container.Close()

	gitClient := ingestion.NewGitClient(logger)
	headSHA, err := gitClient.HeadSHA(ctx, repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolve HEAD: %v\n", err)
		os.Exit(1)
	}

	engine := workflows.NewTemporalWorkflowEngine(container.TemporalClient)
	workflowID, err := engine.StartIncrementalIndex(ctx, cfg.ProjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: start incremental workflow: %v\n", err)
		os.Exit(1)
	}

	push := ports.PushSignal{PushSHA: headSHA, ReceivedAt: time.Now()}
	if err := engine.SignalPush(ctx, workflowID, push); err != nil {
		fmt.Fprintf(os.Stderr, "Error: signal push: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Queued incremental index for %s at %s\n", cfg.ProjectID, headSHA)
}

func printResult(result *ingestion.IngestionResult, dataDir string) {
	fmt.Println()
	fmt.Println("=== Indexing Complete ===")
	fmt.Printf("Project ID: %s\n", result.ProjectID)
	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("Files Processed: %d\n", result.FilesProcessed)
	fmt.Printf("Functions Extracted: %d\n", result.FunctionsExtracted)
	fmt.Printf("Types Extracted: %d\n", result.TypesExtracted)
	fmt.Printf("Defines Edges: %d\n", result.DefinesEdges)
	fmt.Printf("Calls Edges: %d\n", result.CallsEdges)
	fmt.Printf("Entities Written: %d\n", result.EntitiesSent)

	if result.ParseErrors > 0 {
		fmt.Printf("Parse Errors: %d (%.2f%%)\n", result.ParseErrors, result.ParseErrorRate)
	}
	if result.CodeTextTruncated > 0 {
		fmt.Printf("CodeText Truncated: %d\n", result.CodeTextTruncated)
	}

	if len(result.TopSkipReasons) > 0 {
		fmt.Println("\nSkipped Files:")
		for reason, count := range result.TopSkipReasons {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	fmt.Println("\nTimings:")
	fmt.Printf("  Parse: %s\n", result.ParseDuration)
	fmt.Printf("  Write: %s\n", result.WriteDuration)
	fmt.Printf("  Total: %s\n", result.TotalDuration)
	fmt.Println()

	fmt.Printf("Data stored in: %s\n", dataDir)
}
