// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graphstore provides the property-graph store abstraction the core
// depends on. Backend is implemented concretely by a Neo4j-backed adapter
// (neo4j.go) and by an in-memory double for tests (memory.go).
package graphstore

import "context"

// QueryResult is a normalised read-query result: column headers plus rows of
// already-typed values (no driver-specific big-integer wrappers escape this
// package — see normalizeValue in neo4j.go).
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// Backend is the interface every store implementation satisfies. It mirrors
// the store interface this codebase's other Query/Execute-shaped adapters
// expose, parameterised rather than string-built to stay injection-safe
// against a real query language.
type Backend interface {
	// Query runs a read-only Cypher statement and returns its result set.
	Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error)

	// Execute runs a Cypher statement for its side effects (write/merge/delete).
	Execute(ctx context.Context, cypher string, params map[string]any) error

	// EnsureSchema creates the constraints and indexes the core relies on.
	// Idempotent: safe to call on every startup.
	EnsureSchema(ctx context.Context) error

	// Close releases driver/session resources.
	Close(ctx context.Context) error
}
