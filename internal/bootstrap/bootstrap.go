// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap wires a graphstore.Store up against a live Neo4j
// instance: connect, verify connectivity, and ensure the schema the rest of
// the core depends on exists.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

// Connection bundles an open Store with the Backend it wraps, so callers can
// Close the underlying driver without reaching into Store internals.
type Connection struct {
	Store   *graphstore.Store
	backend graphstore.Backend
}

// Close releases the underlying driver's connection pool.
func (c *Connection) Close(ctx context.Context) error {
	return c.backend.Close(ctx)
}

// Connect opens a Neo4j-backed Store using cfg, verifies connectivity, and
// ensures the schema (constraints + indexes) the core relies on exists. This
// is idempotent: calling it repeatedly against the same database is safe.
func Connect(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("bootstrap.store.connect", "uri", cfg.URI, "database", cfg.Database)

	backend, err := graphstore.Open(ctx, graphstore.Config{
		URI:      cfg.URI,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to graph store: %w", err)
	}

	if err := backend.EnsureSchema(ctx); err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("bootstrap.store.ready", "uri", cfg.URI)

	return &Connection{Store: graphstore.New(backend), backend: backend}, nil
}

// ListProjects returns every project ID currently recorded in the store.
func ListProjects(ctx context.Context, conn *Connection) ([]string, error) {
	result, err := conn.backend.Query(ctx, `MATCH (p:Project) RETURN p.id AS id ORDER BY p.id`, nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if id, ok := row[0].(string); ok {
			projects = append(projects, id)
		}
	}
	return projects, nil
}
