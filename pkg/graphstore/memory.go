// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"sync"
)

// RecordedCall captures one Query or Execute invocation for assertions in
// tests that exercise Store against a double rather than a live Neo4j.
type RecordedCall struct {
	Cypher string
	Params map[string]any
}

// MemoryBackend is a Backend test double: it records every call and returns
// pre-seeded responses rather than interpreting Cypher, mirroring the
// teacher's own hand-rolled storage doubles (pkg/storage/embedded_test.go)
// rather than attempting a full query-language interpreter.
type MemoryBackend struct {
	mu       sync.Mutex
	Calls    []RecordedCall
	Queries  []*QueryResult // consumed FIFO by Query; the last one repeats once exhausted
	execErr  error
	queryErr error
}

// NewMemoryBackend builds an empty double.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// SeedQuery appends a canned response for the next Query call.
func (m *MemoryBackend) SeedQuery(result *QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, result)
}

// FailExecute makes every subsequent Execute call return err.
func (m *MemoryBackend) FailExecute(err error) { m.execErr = err }

// FailQuery makes every subsequent Query call return err.
func (m *MemoryBackend) FailQuery(err error) { m.queryErr = err }

func (m *MemoryBackend) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, RecordedCall{Cypher: cypher, Params: params})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if len(m.Queries) == 0 {
		return &QueryResult{}, nil
	}
	next := m.Queries[0]
	if len(m.Queries) > 1 {
		m.Queries = m.Queries[1:]
	}
	return next, nil
}

func (m *MemoryBackend) Execute(ctx context.Context, cypher string, params map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, RecordedCall{Cypher: cypher, Params: params})
	return m.execErr
}

func (m *MemoryBackend) EnsureSchema(ctx context.Context) error { return nil }
func (m *MemoryBackend) Close(ctx context.Context) error        { return nil }
