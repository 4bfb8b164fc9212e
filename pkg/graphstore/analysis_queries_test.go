// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"strings"
	"testing"
)

func nodeRow(id, name, coreType, semanticType, filePath string, line int64) []any {
	return []any{id, name, coreType, semanticType, filePath, line}
}

func TestAnalysisStore_ResolveTargetNodes(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{Rows: [][]any{
		nodeRow("n1", "Base", "Class", "", "a.go", 10),
	}})
	store := NewAnalysisStore(New(backend), "proj_x")

	nodes, err := store.ResolveTargetNodes(context.Background(), "n1")
	if err != nil {
		t.Fatalf("ResolveTargetNodes: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "Base" {
		t.Fatalf("nodes = %+v", nodes)
	}
	if !strings.Contains(backend.Calls[0].Cypher, "n.id = $target") {
		t.Errorf("expected the target-by-id clause in the Cypher, got %s", backend.Calls[0].Cypher)
	}
}

func TestAnalysisStore_DirectDependents(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{Rows: [][]any{
		append(nodeRow("d1", "caller", "Function", "", "b.go", 5), "CALLS"),
	}})
	store := NewAnalysisStore(New(backend), "proj_x")

	deps, err := store.DirectDependents(context.Background(), "n1")
	if err != nil {
		t.Fatalf("DirectDependents: %v", err)
	}
	if len(deps) != 1 || deps[0].RelationshipType != "CALLS" || deps[0].Node.Name != "caller" {
		t.Fatalf("deps = %+v", deps)
	}
}

func TestAnalysisStore_TransitiveDependents_UsesMaxDepth(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{})
	store := NewAnalysisStore(New(backend), "proj_x")

	if _, err := store.TransitiveDependents(context.Background(), "n1", 7); err != nil {
		t.Fatalf("TransitiveDependents: %v", err)
	}
	if !strings.Contains(backend.Calls[0].Cypher, "*1..7") {
		t.Errorf("expected maxDepth interpolated into the variable-length pattern, got %s", backend.Calls[0].Cypher)
	}
}

func TestAnalysisStore_GetNode_NotFound(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{})
	store := NewAnalysisStore(New(backend), "proj_x")

	n, err := store.GetNode(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if n != nil {
		t.Errorf("expected nil for a missing node, got %+v", n)
	}
}

func TestAnalysisStore_Neighbors(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{Rows: [][]any{
		append(nodeRow("c1", "child", "Function", "", "c.go", 1), "CALLS"),
	}})
	store := NewAnalysisStore(New(backend), "proj_x")

	edges, err := store.Neighbors(context.Background(), "n1")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(edges) != 1 || edges[0].Target.Name != "child" {
		t.Fatalf("edges = %+v", edges)
	}
}

func TestAnalysisStore_UnreferencedExports(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{Rows: [][]any{
		nodeRow("e1", "Helper", "Function", "", "helper.go", 3),
	}})
	store := NewAnalysisStore(New(backend), "proj_x")

	nodes, err := store.UnreferencedExports(context.Background(), "proj_x")
	if err != nil {
		t.Fatalf("UnreferencedExports: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("nodes = %+v", nodes)
	}
	if !strings.Contains(backend.Calls[0].Cypher, "isExported: true") {
		t.Errorf("expected the isExported filter in the Cypher, got %s", backend.Calls[0].Cypher)
	}
}
