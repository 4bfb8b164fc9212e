// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/graphcore/internal/changedetect"
	"github.com/kraklabs/graphcore/pkg/astparser"
)

type emptySnapshot struct{}

func (emptySnapshot) IndexedFiles() (map[string]changedetect.IndexedFile, error) {
	return nil, nil
}

func writeSourceFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("package main\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestCoordinator_Run_StreamingPathForSmallProject(t *testing.T) {
	dir := t.TempDir()
	writeSourceFiles(t, dir, "a.go", "b.go")

	store := newFakeStore()
	coord := &Coordinator{
		Store:     store,
		Snapshot:  emptySnapshot{},
		NewParser: func(workerID int) (astparser.Parser, error) { return newFakeParser(workerID, 0), nil },
	}

	var phases []ProgressPhase
	result, err := coord.Run(context.Background(), Config{ProjectRoot: dir, ParallelThreshold: 20}, func(p Progress) {
		phases = append(phases, p.Phase)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesProcessed != 2 {
		t.Errorf("expected 2 files processed, got %d", result.FilesProcessed)
	}
	if result.NodesImported != 2 {
		t.Errorf("expected 2 nodes imported, got %d", result.NodesImported)
	}
	if result.EdgesImported == 0 {
		t.Error("expected deferred edges to resolve into at least one edge")
	}
	nodes, edges := store.counts()
	if nodes != result.NodesImported {
		t.Errorf("expected store to have recorded %d nodes, got %d (chunk double-imported or dropped)", result.NodesImported, nodes)
	}
	if edges != result.EdgesImported {
		t.Errorf("expected store to have recorded %d edges, got %d (chunk double-imported or dropped)", result.EdgesImported, edges)
	}
	if status := store.status; status != "complete" {
		t.Errorf("expected final status complete, got %q", status)
	}

	want := []ProgressPhase{PhaseDiscovery, PhaseParsing, PhaseImporting, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phase sequence = %v, want %v", phases, want)
	}
	for i, p := range want {
		if phases[i] != p {
			t.Errorf("phase[%d] = %q, want %q", i, phases[i], p)
		}
	}
}

func TestCoordinator_Run_PoolPathForLargeProject(t *testing.T) {
	dir := t.TempDir()
	var names []string
	for i := 0; i < 25; i++ {
		names = append(names, fmt.Sprintf("file%d.go", i))
	}
	writeSourceFiles(t, dir, names...)

	store := newFakeStore()
	coord := &Coordinator{
		Store:     store,
		Snapshot:  emptySnapshot{},
		NewParser: func(workerID int) (astparser.Parser, error) { return newFakeParser(workerID, 0), nil },
	}

	result, err := coord.Run(context.Background(), Config{
		ProjectRoot:       dir,
		ParallelThreshold: 20,
		ChunkSize:         5,
		PoolOverride:      4,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesProcessed != 25 {
		t.Errorf("expected 25 files processed, got %d", result.FilesProcessed)
	}
	nodes, edges := store.counts()
	if nodes != 25 {
		t.Errorf("expected 25 nodes imported, got %d", nodes)
	}
	if edges != 25 {
		t.Errorf("expected 25 resolved edges imported, got %d", edges)
	}
	if store.status != "complete" {
		t.Errorf("expected final status complete, got %q", store.status)
	}
}

func TestCoordinator_Run_MarksFailedOnChunkError(t *testing.T) {
	dir := t.TempDir()
	writeSourceFiles(t, dir, "a.go", "b.go")

	store := newFakeStore()
	coord := &Coordinator{
		Store:    store,
		Snapshot: emptySnapshot{},
		NewParser: func(workerID int) (astparser.Parser, error) {
			p := newFakeParser(workerID, 0)
			p.failOn = map[string]bool{filepath.Join(dir, "b.go"): true}
			return p, nil
		},
	}

	_, err := coord.Run(context.Background(), Config{ProjectRoot: dir, ParallelThreshold: 20}, nil)
	if err == nil {
		t.Fatal("expected an error from the failing file, got nil")
	}
	if store.status != "failed" {
		t.Errorf("expected status failed, got %q", store.status)
	}
}

func TestCoordinator_Run_NoFilesStillCompletesCleanly(t *testing.T) {
	dir := t.TempDir()

	store := newFakeStore()
	coord := &Coordinator{
		Store:     store,
		Snapshot:  emptySnapshot{},
		NewParser: func(workerID int) (astparser.Parser, error) { return newFakeParser(workerID, 0), nil },
	}

	result, err := coord.Run(context.Background(), Config{ProjectRoot: dir}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesProcessed != 0 {
		t.Errorf("expected 0 files processed, got %d", result.FilesProcessed)
	}
	if store.status != "complete" {
		t.Errorf("expected status complete, got %q", store.status)
	}
}
