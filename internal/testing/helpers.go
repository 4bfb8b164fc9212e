// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides fixture builders for tests that exercise the
// graph store without a live Neo4j instance.
package testing

import (
	"context"
	"testing"

	"github.com/kraklabs/graphcore/pkg/astparser"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

// SetupTestStore builds a graphstore.Store over an in-memory Backend double.
// The backend records every Query/Execute call rather than interpreting
// Cypher, so assertions read back through backend.Calls rather than through
// a subsequent Query.
func SetupTestStore(t *testing.T) (*graphstore.Store, *graphstore.MemoryBackend) {
	t.Helper()
	backend := graphstore.NewMemoryBackend()
	return graphstore.New(backend), backend
}

// InsertTestFunction imports a single function-shaped CodeNode for projectID.
func InsertTestFunction(t *testing.T, store *graphstore.Store, projectID, id, name, filePath string, lineNumber int) {
	t.Helper()
	node := astparser.Node{
		ID:         id,
		Name:       name,
		Labels:     []string{"Function"},
		CoreType:   "function",
		FilePath:   filePath,
		LineNumber: lineNumber,
		IsExported: true,
	}
	if err := store.ImportNodes(context.Background(), projectID, []astparser.Node{node}); err != nil {
		t.Fatalf("insert test function: %v", err)
	}
}

// InsertTestType imports a single type-shaped CodeNode (struct/interface/class).
func InsertTestType(t *testing.T, store *graphstore.Store, projectID, id, name, kind, filePath string, lineNumber int) {
	t.Helper()
	node := astparser.Node{
		ID:         id,
		Name:       name,
		Labels:     []string{"Type"},
		CoreType:   kind,
		FilePath:   filePath,
		LineNumber: lineNumber,
		IsExported: true,
	}
	if err := store.ImportNodes(context.Background(), projectID, []astparser.Node{node}); err != nil {
		t.Fatalf("insert test type: %v", err)
	}
}

// InsertTestCalls imports a CALLS edge between two already-inserted nodes.
func InsertTestCalls(t *testing.T, store *graphstore.Store, projectID, id, callerID, calleeID string) {
	t.Helper()
	edge := astparser.Edge{
		ID:               id,
		RelationshipType: "CALLS",
		Direction:        "outgoing",
		SourceNodeID:     callerID,
		TargetNodeID:     calleeID,
		Confidence:       1.0,
		Source:           "fixture",
	}
	if err := store.ImportEdges(context.Background(), projectID, []astparser.Edge{edge}); err != nil {
		t.Fatalf("insert test calls edge: %v", err)
	}
}

// InsertTestDefines imports a DEFINES edge (file-owning node -> defined node).
func InsertTestDefines(t *testing.T, store *graphstore.Store, projectID, id, ownerID, definedID string) {
	t.Helper()
	edge := astparser.Edge{
		ID:               id,
		RelationshipType: "DEFINES",
		Direction:        "outgoing",
		SourceNodeID:     ownerID,
		TargetNodeID:     definedID,
		Confidence:       1.0,
		Source:           "fixture",
	}
	if err := store.ImportEdges(context.Background(), projectID, []astparser.Edge{edge}); err != nil {
		t.Fatalf("insert test defines edge: %v", err)
	}
}

// RecordedExecuteCyphers returns the Cypher text of every call the backend
// recorded, in call order; Query calls are recorded alongside Execute calls
// and are included too. Useful for asserting a fixture helper
// issued the write shape a test expects.
func RecordedExecuteCyphers(backend *graphstore.MemoryBackend) []string {
	out := make([]string, 0, len(backend.Calls))
	for _, c := range backend.Calls {
		out = append(out, c.Cypher)
	}
	return out
}
