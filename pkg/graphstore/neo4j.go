// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config configures a connection to a Neo4j instance.
type Config struct {
	URI      string
	Username string
	Password string

	// ConnectTimeout bounds initial driver verification; QueryTimeout bounds
	// each individual session.Run call.
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 30 * time.Second
	}
	return c
}

// Neo4jBackend is the production Backend implementation, backed by the
// official Neo4j driver's session pool (safe for concurrent use across
// goroutines — sessions are cheap and short-lived per call).
type Neo4jBackend struct {
	driver neo4j.DriverWithContext
	cfg    Config
}

// Open connects to Neo4j and verifies connectivity within cfg.ConnectTimeout.
func Open(ctx context.Context, cfg Config) (*Neo4jBackend, error) {
	cfg = cfg.withDefaults()

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) { c.ConnectionAcquisitionTimeout = cfg.ConnectTimeout },
	)
	if err != nil {
		return nil, fmt.Errorf("construct neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}

	return &Neo4jBackend{driver: driver, cfg: cfg}, nil
}

func (b *Neo4jBackend) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return b.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
}

// Query runs a read-only statement and normalises the result into QueryResult.
func (b *Neo4jBackend) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	qCtx, cancel := context.WithTimeout(ctx, b.cfg.QueryTimeout)
	defer cancel()

	session := b.session(qCtx, neo4j.AccessModeRead)
	defer session.Close(qCtx)

	result, err := session.ExecuteRead(qCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(qCtx, cypher, params)
		if err != nil {
			return nil, err
		}
		return collect(qCtx, records)
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return result.(*QueryResult), nil
}

// Execute runs a write statement for its side effects.
func (b *Neo4jBackend) Execute(ctx context.Context, cypher string, params map[string]any) error {
	qCtx, cancel := context.WithTimeout(ctx, b.cfg.QueryTimeout)
	defer cancel()

	session := b.session(qCtx, neo4j.AccessModeWrite)
	defer session.Close(qCtx)

	_, err := session.ExecuteWrite(qCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(qCtx, cypher, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// EnsureSchema creates the constraints/indexes the core relies on. Safe to
// call repeatedly: Neo4j's IF NOT EXISTS clauses make every statement a
// no-op on a schema that already matches.
func (b *Neo4jBackend) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT project_id IF NOT EXISTS FOR (p:Project) REQUIRE p.id IS UNIQUE",
		"CREATE CONSTRAINT code_node_id IF NOT EXISTS FOR (n:CodeNode) REQUIRE n.id IS UNIQUE",
		"CREATE INDEX code_node_project IF NOT EXISTS FOR (n:CodeNode) ON (n.projectId)",
		"CREATE INDEX code_node_file_path IF NOT EXISTS FOR (n:CodeNode) ON (n.filePath)",
		"CREATE INDEX indexed_file_project IF NOT EXISTS FOR (f:IndexedFile) ON (f.projectId)",
		"CREATE CONSTRAINT indexed_file_key IF NOT EXISTS FOR (f:IndexedFile) REQUIRE (f.projectId, f.filePath) IS UNIQUE",
	}
	for _, stmt := range statements {
		if err := b.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema %q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the driver's connection pool.
func (b *Neo4jBackend) Close(ctx context.Context) error {
	return b.driver.Close(ctx)
}

// collect drains a result stream into headers + normalised rows, passing
// every value through normalizeValue.
func collect(ctx context.Context, records neo4j.ResultWithContext) (*QueryResult, error) {
	keys, err := records.Keys()
	if err != nil {
		return nil, err
	}
	result := &QueryResult{Headers: keys}

	for records.Next(ctx) {
		record := records.Record()
		row := make([]any, len(keys))
		for i, key := range keys {
			v, _ := record.Get(key)
			row[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := records.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue converts the handful of driver-specific wrapper types this
// core touches (nodes, relationships, lists) into plain Go values. Every
// other value, numbers included, is returned unchanged.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case neo4j.Node:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = normalizeValue(p)
		}
		props["_labels"] = val.Labels
		return props
	case neo4j.Relationship:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = normalizeValue(p)
		}
		props["_type"] = val.Type
		return props
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
