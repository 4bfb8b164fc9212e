// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads graphcore's layered configuration: a YAML file on
// disk, overridden by environment variables, each falling back to a
// hardcoded default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/graphcore/internal/errors"
)

// StoreConfig holds graph-store connection settings.
type StoreConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// EmbeddingConfig holds the embeddings endpoint settings.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// LLMConfig holds the narrative-assistant endpoint settings.
type LLMConfig struct {
	Type     string `yaml:"type"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// WorkerConfig overrides the parse worker pool's sizing.
type WorkerConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// JobsConfig overrides the job manager's bookkeeping limits.
type JobsConfig struct {
	MaxJobs int           `yaml:"max_jobs"`
	TTL     time.Duration `yaml:"ttl"`
}

// ChangeDetectConfig holds the change detector's file-exclusion patterns.
type ChangeDetectConfig struct {
	ExcludeGlobs []string `yaml:"exclude_globs"`
}

// WatchConfig holds the filesystem watcher's debounce interval.
type WatchConfig struct {
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// Config is graphcore's full layered configuration.
type Config struct {
	Store         StoreConfig        `yaml:"store"`
	Embedding     EmbeddingConfig    `yaml:"embedding"`
	LLM           LLMConfig          `yaml:"llm"`
	Worker        WorkerConfig       `yaml:"worker"`
	Jobs          JobsConfig         `yaml:"jobs"`
	ChangeDetect  ChangeDetectConfig `yaml:"change_detect"`
	Watch         WatchConfig        `yaml:"watch"`
}

// Default returns the built-in baseline every layer overrides on top of.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Embedding: EmbeddingConfig{
			Endpoint: "https://api.openai.com/v1",
			Model:    "text-embedding-3-small",
		},
		LLM: LLMConfig{
			Type:     "openai",
			Endpoint: "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
		},
		Worker: WorkerConfig{
			PoolSize: 4,
		},
		Jobs: JobsConfig{
			MaxJobs: 1000,
			TTL:     time.Hour,
		},
		ChangeDetect: ChangeDetectConfig{
			ExcludeGlobs: []string{"node_modules/**", ".git/**", "dist/**", "vendor/**"},
		},
		Watch: WatchConfig{
			DebounceInterval: 500 * time.Millisecond,
		},
	}
}

// Load reads path (if it exists), applies environment variable overrides,
// and returns the resulting Config layered over Default(). A missing file
// at path is not an error — it simply means the YAML layer is skipped.
// A malformed file is a ConfigurationError (fatal, per the spec's error
// model).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.NewConfigError(
					"Cannot read graphcore configuration",
					fmt.Sprintf("failed to read %s: %v", path, err),
					"Check the file exists and is readable, or remove --config to use defaults",
					err,
				)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewConfigError(
				"Cannot parse graphcore configuration",
				fmt.Sprintf("%s is not valid YAML: %v", path, err),
				"Check the file's indentation and structure against the documented schema",
				err,
			)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides layers GRAPHCORE_* environment variables over whatever
// the YAML file (or Default) already set. Unset or unparseable variables
// are silently skipped — an override is opportunistic, never required.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAPHCORE_STORE_URI"); v != "" {
		cfg.Store.URI = v
	}
	if v := os.Getenv("GRAPHCORE_STORE_USERNAME"); v != "" {
		cfg.Store.Username = v
	}
	if v := os.Getenv("GRAPHCORE_STORE_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("GRAPHCORE_STORE_DATABASE"); v != "" {
		cfg.Store.Database = v
	}

	if v := os.Getenv("GRAPHCORE_EMBEDDING_ENDPOINT"); v != "" {
		cfg.Embedding.Endpoint = v
	}
	if v := os.Getenv("GRAPHCORE_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("GRAPHCORE_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("GRAPHCORE_LLM_TYPE"); v != "" {
		cfg.LLM.Type = v
	}
	if v := os.Getenv("GRAPHCORE_LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("GRAPHCORE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GRAPHCORE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("GRAPHCORE_WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.PoolSize = n
		}
	}

	if v := os.Getenv("GRAPHCORE_JOBS_MAX_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Jobs.MaxJobs = n
		}
	}
	if v := os.Getenv("GRAPHCORE_JOBS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Jobs.TTL = d
		}
	}

	if v := os.Getenv("GRAPHCORE_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.DebounceInterval = d
		}
	}
}
