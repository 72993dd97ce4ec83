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

// Package config loads and saves cmd/cartograph's per-repo project
// configuration, .cartograph/project.yaml, plus the environment-variable
// overrides applyEnvOverrides recognizes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama", "nomic", "openai", "mock"
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// LLMConfig configures the OpenAI-compatible LLM pkg/justify uses for
// narrative generation. Disabled by default — a project with no LLM
// configured still indexes and embeds, it just skips justification.
type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// IndexingConfig controls workspace preparation and extraction: parser
// selection, exclude globs, and the max-file-size/max-body-size limits
// enforced before a file's body is stored.
type IndexingConfig struct {
	ParserMode       string   `yaml:"parser_mode,omitempty"` // "auto", "treesitter", "simplified"
	Exclude          []string `yaml:"exclude,omitempty"`
	MaxFileSize      int64    `yaml:"max_file_size,omitempty"`
	MaxBodyChars     int64    `yaml:"max_body_chars,omitempty"`
	BatchTarget      int      `yaml:"batch_target,omitempty"`
	EmbedWorkers     int      `yaml:"embed_workers,omitempty"`
}

// IncrementalConfig holds the quiet period, fallback-to-full-reindex
// file-count threshold, and re-justification cascade depth (decision
// recorded in DESIGN.md). These values are loaded and saved but not passed
// to the incremental workflow, which uses its DebounceWindow constant and
// pkg/incremental's FallbackThresholdFiles and DefaultCascadeMaxDepth.
type IncrementalConfig struct {
	QuietPeriodMS     int `yaml:"quiet_period_ms,omitempty"`
	FallbackThreshold int `yaml:"fallback_threshold_files,omitempty"`
	CascadeMaxDepth   int `yaml:"cascade_max_depth,omitempty"`
}

// TemporalConfig points cmd/cartograph worker and index --incremental at a
// Temporal server.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// PostgresConfig configures the ports.RelationalStore connection.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// RedisConfig configures the ports.CacheStore connection.
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
}

// Config is cmd/cartograph's project-level configuration, persisted at
// .cartograph/project.yaml.
type Config struct {
	ProjectID string `yaml:"project_id"`
	OrgID     string `yaml:"org_id,omitempty"`

	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Incremental IncrementalConfig `yaml:"incremental"`
	Temporal    TemporalConfig    `yaml:"temporal"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
}

// DefaultConfig returns the recommended Config for a standalone,
// single-node deployment, identified by projectID (typically the repo
// directory's base name).
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		LLM: LLMConfig{
			Enabled:   false,
			MaxTokens: 2000,
		},
		Indexing: IndexingConfig{
			ParserMode:   "auto",
			MaxFileSize:  1024 * 1024,
			MaxBodyChars: 2000,
			BatchTarget:  2000,
			EmbedWorkers: 8,
		},
		Incremental: IncrementalConfig{
			QuietPeriodMS:     60000,
			FallbackThreshold: 200,
			CascadeMaxDepth:   2,
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Postgres: PostgresConfig{},
		Redis:    RedisConfig{URL: "redis://localhost:6379/0"},
	}
}

// ConfigDir returns the .cartograph directory under repoRoot.
func ConfigDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".cartograph")
}

// ConfigPath returns the project.yaml path under repoRoot's config
// directory.
func ConfigPath(repoRoot string) string {
	return filepath.Join(ConfigDir(repoRoot), "project.yaml")
}

// LoadConfig reads and parses the project.yaml at path, then applies
// environment-variable overrides on top of whatever the file set. An
// empty path defaults to ConfigPath of the current directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration at %s — run 'cartograph init' first", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides follows the OLLAMA_HOST/OLLAMA_EMBED_MODEL convention,
// extended to the rest of the external connections a config file alone
// shouldn't have to name (credentials, per-environment endpoints).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("CARTOGRAPH_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("CARTOGRAPH_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("CARTOGRAPH_TEMPORAL_HOST_PORT"); v != "" {
		cfg.Temporal.HostPort = v
	}
	if v := os.Getenv("CARTOGRAPH_TEMPORAL_NAMESPACE"); v != "" {
		cfg.Temporal.Namespace = v
	}
	if v := os.Getenv("CARTOGRAPH_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("CARTOGRAPH_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CARTOGRAPH_FALLBACK_THRESHOLD_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Incremental.FallbackThreshold = n
		}
	}
	if v := os.Getenv("CARTOGRAPH_CASCADE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Incremental.CascadeMaxDepth = n
		}
	}
}
