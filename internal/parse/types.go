// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package parse implements the chunked, pipelined parse pipeline: chunk
// workers (C3), the worker pool (C4), the sequential streaming fallback
// (C5), and the coordinator that ties them together with change detection
// and project lifecycle management (C6).
package parse

import (
	"context"
	"time"

	"github.com/kraklabs/graphcore/pkg/astparser"
)

// Store is the subset of the graph store the parse pipeline needs. A
// concrete implementation lives in pkg/graphstore; this interface exists so
// internal/parse never imports a specific driver.
type Store interface {
	ClearProject(ctx context.Context, projectID string) error
	UpsertProject(ctx context.Context, projectID, path, name, status string) error
	UpdateProjectStatus(ctx context.Context, projectID, status string, nodeCount, edgeCount int) error
	ImportNodes(ctx context.Context, projectID string, nodes []astparser.Node) error
	ImportEdges(ctx context.Context, projectID string, edges []astparser.Edge) error
	DeleteFileSubgraphs(ctx context.Context, projectID string, filePaths []string) error
}

// ProgressPhase is a stage of the overall parse operation.
type ProgressPhase string

const (
	PhasePending   ProgressPhase = "pending"
	PhaseDiscovery ProgressPhase = "discovery"
	PhaseParsing   ProgressPhase = "parsing"
	PhaseImporting ProgressPhase = "importing"
	PhaseResolving ProgressPhase = "resolving"
	PhaseComplete  ProgressPhase = "complete"
)

// Progress is reported through a ProgressFunc at every phase transition and,
// within PhaseParsing/PhaseImporting, after every chunk.
type Progress struct {
	Phase          ProgressPhase
	FilesTotal     int
	FilesProcessed int
	NodesImported  int
	EdgesImported  int
	CurrentChunk   int
	TotalChunks    int
	Details        string
}

// ProgressFunc receives progress updates. Implementations must return quickly;
// slow consumers should buffer internally.
type ProgressFunc func(Progress)

// Result summarizes a completed (or failed) parse operation.
type Result struct {
	ProjectID      string
	FilesProcessed int
	NodesImported  int
	EdgesImported  int
	Duration       time.Duration
}

// ChunkOutcome is the per-chunk output a worker or the streaming importer
// produces, mirroring astparser.ChunkResult plus bookkeeping the pool needs.
type ChunkOutcome struct {
	ChunkIndex     int
	Nodes          []astparser.Node
	Edges          []astparser.Edge
	DeferredEdges  []astparser.DeferredEdgeRef
	FilesProcessed int
	SharedContext  astparser.SharedContext
}
