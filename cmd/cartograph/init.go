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
	"bufio"
	flag "github.com/spf13/pflag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/cartograph/pkg/config"
)

// runInit executes the 'init' CLI command, creating a .cartograph/project.yaml
// configuration file.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//   - --embedding-provider: Embedding provider (ollama, nomic, openai, mock)
//   - --llm-url: LLM API URL for narrative generation
//   - --llm-model: LLM model name
//   - --llm-api-key: LLM API key (optional for local models)
//   - --temporal-host-port: Temporal frontend address
//   - --no-hook: Skip git hook installation
//   - --hook: Install git hook without prompting
//
// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive, noHook, withHook bool
	projectID, embeddingProvider            string
	llmURL, llmModel, llmAPIKey             string
	temporalHostPort                        string
}

func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := config.ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	handleHookInstallation(reader, flags)
	printNextSteps(flags.noHook)
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.embeddingProvider, "embedding-provider", "", "Embedding provider (ollama, nomic, openai, mock)")
	fs.StringVar(&f.llmURL, "llm-url", "", "LLM API URL (OpenAI-compatible, e.g., http://localhost:8001/v1)")
	fs.StringVar(&f.llmModel, "llm-model", "", "LLM model name")
	fs.StringVar(&f.llmAPIKey, "llm-api-key", "", "LLM API key (optional for local models)")
	fs.StringVar(&f.temporalHostPort, "temporal-host-port", "", "Temporal frontend address")
	fs.BoolVar(&f.noHook, "no-hook", false, "Skip git hook installation (hook is installed by default)")
	fs.BoolVar(&f.withHook, "hook", false, "Install git hook without prompting (for scripts)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cartograph init [options]

Creates .cartograph/project.yaml configuration file.

Examples:
  cartograph init                       # Interactive setup
  cartograph init -y                    # Non-interactive with defaults
  cartograph init --llm-url http://localhost:8001/v1
  cartograph init --hook                # Also install git hook

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *config.Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := config.DefaultConfig(pid)
	if f.embeddingProvider != "" {
		cfg.Embedding.Provider = f.embeddingProvider
	}
	if f.llmURL != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.BaseURL = f.llmURL
	}
	if f.llmModel != "" {
		cfg.LLM.Model = f.llmModel
	}
	if f.llmAPIKey != "" {
		cfg.LLM.APIKey = f.llmAPIKey
	}
	if f.temporalHostPort != "" {
		cfg.Temporal.HostPort = f.temporalHostPort
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("Cartograph Project Configuration")
	fmt.Println("=================================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Embedding Providers: ollama, nomic, openai, mock")
	cfg.Embedding.Provider = prompt(reader, "Embedding provider", cfg.Embedding.Provider)
	if cfg.Embedding.Provider == "ollama" {
		cfg.Embedding.BaseURL = prompt(reader, "Ollama URL", cfg.Embedding.BaseURL)
		cfg.Embedding.Model = prompt(reader, "Embedding model", cfg.Embedding.Model)
	}

	promptLLMConfig(reader, cfg)

	fmt.Println()
	cfg.Temporal.HostPort = prompt(reader, "Temporal frontend address (empty to skip durable workflows)", cfg.Temporal.HostPort)
	fmt.Println()
}

func promptLLMConfig(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println()
	fmt.Println("LLM Configuration (for justify narratives)")
	fmt.Println("Configure an OpenAI-compatible LLM to generate narrative explanations.")
	fmt.Println("Leave empty to skip LLM configuration.")
	fmt.Println()

	llmURLInput := prompt(reader, "LLM API URL (e.g., http://localhost:8001/v1)", cfg.LLM.BaseURL)
	if llmURLInput != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.BaseURL = llmURLInput
		cfg.LLM.Model = prompt(reader, "LLM model name", "qwen3-coder")
		cfg.LLM.APIKey = prompt(reader, "LLM API key (optional)", cfg.LLM.APIKey)
		maxTokensStr := prompt(reader, "Max tokens for narrative", "2000")
		if maxTokensStr != "" {
			var maxTokens int
			_, _ = fmt.Sscanf(maxTokensStr, "%d", &maxTokens)
			if maxTokens > 0 {
				cfg.LLM.MaxTokens = maxTokens
			}
		}
	}
}

func saveInitConfig(cwd, configPath string, cfg *config.Config) {
	dir := config.ConfigDir(cwd)
	if err := os.MkdirAll(dir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .cartograph directory: %v\n", err)
		os.Exit(1)
	}
	if err := config.SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func handleHookInstallation(reader *bufio.Reader, f initFlags) {
	if f.noHook {
		return
	}
	shouldInstall := f.withHook
	if !f.withHook && !f.nonInteractive {
		fmt.Println()
		hookAnswer := prompt(reader, "Install git hook for auto-indexing? (Y/n)", "y")
		hookAnswer = strings.ToLower(strings.TrimSpace(hookAnswer))
		shouldInstall = hookAnswer != "n" && hookAnswer != "no"
	} else if f.nonInteractive {
		shouldInstall = true
	}

	if !shouldInstall {
		return
	}
	gitDir, err := findGitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot find .git directory: %v\n", err)
		return
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if err := installHook(hookPath, false); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot install git hook: %v\n", err)
	} else {
		fmt.Printf("Git hook installed: %s\n", hookPath)
	}
}

func printNextSteps(noHook bool) {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .cartograph/project.yaml if needed")
	fmt.Println("  2. Run 'cartograph index' to index your repository")
	fmt.Println("  3. Run 'cartograph status' to verify indexing")
	if noHook {
		fmt.Println()
		fmt.Println("Tip: Run 'cartograph install-hook' to enable auto-indexing on each commit")
	}
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue when the user presses Enter without typing
// anything.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .cartograph/ to the project's .gitignore file if not
// already present. Silently returns if .gitignore doesn't exist.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".cartograph/" || line == ".cartograph" || line == "/.cartograph/" || line == "/.cartograph" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# cartograph configuration\n.cartograph/\n")
	fmt.Println("Added .cartograph/ to .gitignore")
}
