// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"context"
	"testing"
)

func TestFunctionsNeedingEmbeddings_MapsRows(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SeedQuery(&QueryResult{
		Headers: []string{"id", "sourceCode"},
		Rows:    [][]any{{"fn1", "func A() {}"}},
	})
	store := New(backend)

	candidates, err := store.FunctionsNeedingEmbeddings(context.Background(), "proj_x")
	if err != nil {
		t.Fatalf("FunctionsNeedingEmbeddings: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "fn1" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestSetEmbeddings_SplitsIntoBatches(t *testing.T) {
	t.Setenv("GRAPHCORE_IMPORT_BATCH_ROWS", "1")
	backend := NewMemoryBackend()
	store := New(backend)

	err := store.SetEmbeddings(context.Background(), map[string][]float32{
		"fn1": {0.1, 0.2},
		"fn2": {0.3, 0.4},
	})
	if err != nil {
		t.Fatalf("SetEmbeddings: %v", err)
	}
	if len(backend.Calls) != 2 {
		t.Fatalf("expected 2 batched Execute calls, got %d", len(backend.Calls))
	}
}

func TestSetEmbeddings_Empty(t *testing.T) {
	backend := NewMemoryBackend()
	store := New(backend)
	if err := store.SetEmbeddings(context.Background(), nil); err != nil {
		t.Fatalf("SetEmbeddings(nil): %v", err)
	}
	if len(backend.Calls) != 0 {
		t.Errorf("expected no Execute calls for an empty map, got %d", len(backend.Calls))
	}
}
