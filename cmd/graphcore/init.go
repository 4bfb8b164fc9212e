// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/ui"
)

// defaultConfigPath returns where `index`/`status`/etc look for a config
// file when -config isn't given: <cwd>/.graphcore/config.yaml.
func defaultConfigPath(cwd string) string {
	return filepath.Join(cwd, ".graphcore", "config.yaml")
}

func runInit(args []string) {
	fs := pflag.NewFlagSet("init", pflag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing configuration")
	nonInteractive := fs.Bool("y", false, "Non-interactive mode: use defaults")
	storeURI := fs.String("store-uri", "", "Neo4j bolt URI")
	storeUser := fs.String("store-username", "", "Neo4j username")
	embedEndpoint := fs.String("embedding-endpoint", "", "OpenAI-compatible embeddings endpoint")
	embedModel := fs.String("embedding-model", "", "Embedding model name")
	_ = fs.Parse(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot read current directory", err.Error(), "Retry from a valid working directory", err), false)
	}

	configPath := defaultConfigPath(cwd)
	if _, statErr := os.Stat(configPath); statErr == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			fmt.Sprintf("%s already exists", configPath),
			"init does not overwrite an existing configuration by default",
			"Re-run with --force to overwrite", nil), false)
	}

	cfg := config.Default()
	if *storeURI != "" {
		cfg.Store.URI = *storeURI
	}
	if *storeUser != "" {
		cfg.Store.Username = *storeUser
	}
	if *embedEndpoint != "" {
		cfg.Embedding.Endpoint = *embedEndpoint
	}
	if *embedModel != "" {
		cfg.Embedding.Model = *embedModel
	}

	if !*nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		cfg.Store.URI = prompt(reader, "Neo4j bolt URI", cfg.Store.URI)
		cfg.Store.Username = prompt(reader, "Neo4j username", cfg.Store.Username)
		cfg.Embedding.Endpoint = prompt(reader, "Embeddings endpoint", cfg.Embedding.Endpoint)
		cfg.Embedding.Model = prompt(reader, "Embeddings model", cfg.Embedding.Model)
	}

	if err := saveConfig(configPath, cfg); err != nil {
		errors.FatalError(errors.NewPermissionError("Cannot write configuration",
			err.Error(), "Check write permissions for the target directory", err), false)
	}

	ui.Successf("Wrote %s", configPath)
	ui.Info("Next steps: graphcore index .")
}

// prompt reads one line from reader, falling back to defaultValue when the
// user answers empty.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func saveConfig(path string, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
