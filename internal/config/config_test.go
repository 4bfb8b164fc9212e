// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.URI != Default().Store.URI {
		t.Errorf("expected default store URI, got %q", cfg.Store.URI)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Worker.PoolSize != Default().Worker.PoolSize {
		t.Errorf("expected default pool size, got %d", cfg.Worker.PoolSize)
	}
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "store:\n  uri: bolt://prod-neo4j:7687\nworker:\n  pool_size: 16\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.URI != "bolt://prod-neo4j:7687" {
		t.Errorf("Store.URI = %q, want override", cfg.Store.URI)
	}
	if cfg.Worker.PoolSize != 16 {
		t.Errorf("Worker.PoolSize = %d, want 16", cfg.Worker.PoolSize)
	}
	if cfg.LLM.Model != Default().LLM.Model {
		t.Errorf("expected untouched fields to keep their defaults, got %q", cfg.LLM.Model)
	}
}

func TestLoad_MalformedYAMLIsConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store: [this is not a mapping\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLoad_EnvOverridesWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  uri: bolt://from-yaml:7687\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("GRAPHCORE_STORE_URI", "bolt://from-env:7687")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.URI != "bolt://from-env:7687" {
		t.Errorf("Store.URI = %q, want the env override to win", cfg.Store.URI)
	}
}

func TestLoad_EnvOverridesParseDurationsAndInts(t *testing.T) {
	t.Setenv("GRAPHCORE_JOBS_MAX_JOBS", "42")
	t.Setenv("GRAPHCORE_JOBS_TTL", "90s")
	t.Setenv("GRAPHCORE_WATCH_DEBOUNCE", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Jobs.MaxJobs != 42 {
		t.Errorf("Jobs.MaxJobs = %d, want 42", cfg.Jobs.MaxJobs)
	}
	if cfg.Jobs.TTL != 90*time.Second {
		t.Errorf("Jobs.TTL = %v, want 90s", cfg.Jobs.TTL)
	}
	if cfg.Watch.DebounceInterval != 2*time.Second {
		t.Errorf("Watch.DebounceInterval = %v, want 2s", cfg.Watch.DebounceInterval)
	}
}

func TestLoad_LLMEnvOverrides(t *testing.T) {
	t.Setenv("GRAPHCORE_LLM_TYPE", "anthropic")
	t.Setenv("GRAPHCORE_LLM_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Type != "anthropic" {
		t.Errorf("LLM.Type = %q, want anthropic", cfg.LLM.Type)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("LLM.APIKey = %q, want sk-test", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != Default().LLM.Model {
		t.Errorf("expected untouched LLM.Model to keep its default, got %q", cfg.LLM.Model)
	}
}

func TestLoad_UnparseableEnvIntIsIgnored(t *testing.T) {
	t.Setenv("GRAPHCORE_WORKER_POOL_SIZE", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Worker.PoolSize != Default().Worker.PoolSize {
		t.Errorf("expected the unparseable override to be ignored, got %d", cfg.Worker.PoolSize)
	}
}
