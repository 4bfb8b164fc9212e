// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"testing"
)

func TestListProjects_MapsRows(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{
		Headers: []string{"id", "path", "status", "nodeCount", "edgeCount"},
		Rows:    [][]any{{"proj_x", "/repo", "complete", int64(10), int64(5)}},
	})
	store := New(backend)

	projects, err := store.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "proj_x" || projects[0].NodeCount != 10 {
		t.Fatalf("unexpected projects: %+v", projects)
	}
}

func TestCountEntities_MapsRowOrZeroValue(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{
		Headers: []string{"files", "functions", "types", "callEdges"},
		Rows:    [][]any{{int64(3), int64(7), int64(2), int64(11)}},
	})
	store := New(backend)

	counts, err := store.CountEntities(context.Background(), "proj_x")
	if err != nil {
		t.Fatalf("CountEntities: %v", err)
	}
	if counts.Files != 3 || counts.Functions != 7 || counts.Types != 2 || counts.CallEdges != 11 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestCountEntities_NoRowsReturnsZeroValue(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)

	counts, err := store.CountEntities(context.Background(), "proj_x")
	if err != nil {
		t.Fatalf("CountEntities: %v", err)
	}
	if *counts != (ProjectCounts{}) {
		t.Fatalf("expected zero-value counts, got %+v", counts)
	}
}
