// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"strings"
	"testing"

	"github.com/kraklabs/graphcore/internal/changedetect"
	"github.com/kraklabs/graphcore/pkg/astparser"
)

func TestStore_ImportEdges_GroupsByRelationshipType(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)

	edges := []astparser.Edge{
		{ID: "e1", RelationshipType: "CALLS", SourceNodeID: "a", TargetNodeID: "b"},
		{ID: "e2", RelationshipType: "CALLS", SourceNodeID: "b", TargetNodeID: "c"},
		{ID: "e3", RelationshipType: "EXTENDS", SourceNodeID: "a", TargetNodeID: "d"},
	}
	if err := store.ImportEdges(context.Background(), "proj_x", edges); err != nil {
		t.Fatalf("ImportEdges: %v", err)
	}
	if len(backend.Calls) != 2 {
		t.Fatalf("expected one Execute per relationship type, got %d calls", len(backend.Calls))
	}
	var sawCalls, sawExtends bool
	for _, call := range backend.Calls {
		if strings.Contains(call.Cypher, ":CALLS") {
			sawCalls = true
			rows := call.Params["rows"].([]map[string]any)
			if len(rows) != 2 {
				t.Errorf("expected 2 CALLS rows, got %d", len(rows))
			}
		}
		if strings.Contains(call.Cypher, ":EXTENDS") {
			sawExtends = true
		}
	}
	if !sawCalls || !sawExtends {
		t.Error("expected both CALLS and EXTENDS statements")
	}
}

func TestStore_ImportEdges_RejectsUnsafeRelationshipType(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)

	edges := []astparser.Edge{{ID: "e1", RelationshipType: "CALLS} MATCH (n) DETACH DELETE n //", SourceNodeID: "a", TargetNodeID: "b"}}
	if err := store.ImportEdges(context.Background(), "proj_x", edges); err == nil {
		t.Fatal("expected rejection of a non-identifier relationship type")
	}
}

func TestStore_ImportEdges_Empty(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)
	if err := store.ImportEdges(context.Background(), "proj_x", nil); err != nil {
		t.Fatalf("ImportEdges(nil): %v", err)
	}
	if len(backend.Calls) != 0 {
		t.Errorf("expected no Execute calls for an empty edge set, got %d", len(backend.Calls))
	}
}

func TestProjectSnapshot_IndexedFiles(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{
		Headers: []string{"filePath", "modTime", "size", "hash"},
		Rows: [][]any{
			{"a.go", int64(100), int64(10), "deadbeef"},
		},
	})
	store := New(backend)
	snap := ProjectSnapshot{Store: store, ProjectID: "proj_x", Ctx: context.Background()}

	files, err := snap.IndexedFiles()
	if err != nil {
		t.Fatalf("IndexedFiles: %v", err)
	}
	want := changedetect.IndexedFile{FilePath: "a.go", ModTimeUnixNano: 100, Size: 10, ContentHash: "deadbeef"}
	if got := files["a.go"]; got != want {
		t.Errorf("files[a.go] = %+v, want %+v", got, want)
	}
}

func TestStore_ImportNodes_SplitsIntoBatches(t *testing.T) {
	t.Setenv("GRAPHCORE_IMPORT_BATCH_ROWS", "2")
	backend := NewMemoryBackend()
	store := New(backend)

	nodes := []astparser.Node{
		{ID: "n1"}, {ID: "n2"}, {ID: "n3"}, {ID: "n4"}, {ID: "n5"},
	}
	if err := store.ImportNodes(context.Background(), "proj_x", nodes); err != nil {
		t.Fatalf("ImportNodes: %v", err)
	}
	if len(backend.Calls) != 3 {
		t.Fatalf("expected 3 batches of at most 2 rows, got %d calls", len(backend.Calls))
	}
	total := 0
	for _, call := range backend.Calls {
		rows := call.Params["rows"].([]map[string]any)
		if len(rows) > 2 {
			t.Errorf("batch exceeded the configured row limit: got %d rows", len(rows))
		}
		total += len(rows)
	}
	if total != 5 {
		t.Errorf("expected all 5 nodes imported across batches, got %d", total)
	}
}

func TestStore_ImportEdges_SplitsIntoBatchesPerType(t *testing.T) {
	t.Setenv("GRAPHCORE_IMPORT_BATCH_ROWS", "1")
	backend := NewMemoryBackend()
	store := New(backend)

	edges := []astparser.Edge{
		{ID: "e1", RelationshipType: "CALLS", SourceNodeID: "a", TargetNodeID: "b"},
		{ID: "e2", RelationshipType: "CALLS", SourceNodeID: "b", TargetNodeID: "c"},
	}
	if err := store.ImportEdges(context.Background(), "proj_x", edges); err != nil {
		t.Fatalf("ImportEdges: %v", err)
	}
	if len(backend.Calls) != 2 {
		t.Fatalf("expected one Execute call per edge with a batch size of 1, got %d", len(backend.Calls))
	}
}

func TestStore_ClearProject_ScopesByProjectID(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)
	if err := store.ClearProject(context.Background(), "proj_x"); err != nil {
		t.Fatalf("ClearProject: %v", err)
	}
	if len(backend.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(backend.Calls))
	}
	if backend.Calls[0].Params["projectId"] != "proj_x" {
		t.Errorf("expected projectId param proj_x, got %v", backend.Calls[0].Params["projectId"])
	}
}
