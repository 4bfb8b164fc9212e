// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/graphcore/pkg/astparser"
)

// fakeParser is a deterministic astparser.Parser test double. Each ParseChunk
// call produces one node per input file and records how many chunks the
// instance has handled, so tests can assert exclusivity (no two goroutines
// call it concurrently) without a real AST backend.
type fakeParser struct {
	workerID int
	delay    time.Duration
	failOn   map[string]bool

	mu          sync.Mutex
	inFlight    int32
	merged      []astparser.DeferredEdgeRef
	mergedCtx   []astparser.SharedContext
	chunksSeen  int
	resolveHits int32
}

func newFakeParser(workerID int, delay time.Duration) *fakeParser {
	return &fakeParser{workerID: workerID, delay: delay}
}

func (p *fakeParser) DiscoverSourceFiles(ctx context.Context) ([]string, error) { return nil, nil }

func (p *fakeParser) ParseChunk(ctx context.Context, files []string, skipDeferredResolution bool) (*astparser.ChunkResult, error) {
	if n := atomic.AddInt32(&p.inFlight, 1); n > 1 {
		atomic.AddInt32(&p.inFlight, -1)
		return nil, fmt.Errorf("parser %d handled two chunks concurrently", p.workerID)
	}
	defer atomic.AddInt32(&p.inFlight, -1)

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	p.chunksSeen++
	p.mu.Unlock()

	for _, f := range files {
		if p.failOn[f] {
			return nil, fmt.Errorf("simulated failure on %s", f)
		}
	}

	result := &astparser.ChunkResult{FilesProcessed: len(files)}
	for _, f := range files {
		result.Nodes = append(result.Nodes, astparser.Node{ID: f, Name: f, FilePath: f})
		result.DeferredEdges = append(result.DeferredEdges, astparser.DeferredEdgeRef{
			RelationshipType: "CALLS",
			SourceNodeID:     f,
			TargetSymbol:     "main",
		})
	}
	return result, nil
}

func (p *fakeParser) MergeSerializedSharedContext(ctx astparser.SharedContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mergedCtx = append(p.mergedCtx, ctx)
	return nil
}

func (p *fakeParser) MergeDeferredEdges(edges []astparser.DeferredEdgeRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.merged = append(p.merged, edges...)
	return nil
}

func (p *fakeParser) ResolveDeferredEdges(ctx context.Context) ([]astparser.Edge, error) {
	atomic.AddInt32(&p.resolveHits, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	edges := make([]astparser.Edge, 0, len(p.merged))
	for _, d := range p.merged {
		edges = append(edges, astparser.Edge{
			ID:               d.SourceNodeID + "->" + d.TargetSymbol,
			RelationshipType: d.RelationshipType,
			SourceNodeID:     d.SourceNodeID,
			TargetNodeID:     d.TargetSymbol,
		})
	}
	return edges, nil
}

func (p *fakeParser) ApplyEdgeEnhancementsManually(ctx context.Context) ([]astparser.Edge, error) {
	return nil, nil
}

func (p *fakeParser) LoadFrameworkSchemasForType(projectType string) error { return nil }
func (p *fakeParser) ClearParsedData()                                    {}
func (p *fakeParser) GetProjectID() string                                { return "" }

// fakeStore is an in-memory parse.Store test double.
type fakeStore struct {
	mu     sync.Mutex
	nodes  []astparser.Node
	edges  []astparser.Edge
	status string
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) ClearProject(ctx context.Context, projectID string) error { return nil }

func (s *fakeStore) UpsertProject(ctx context.Context, projectID, path, name, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

func (s *fakeStore) UpdateProjectStatus(ctx context.Context, projectID, status string, nodeCount, edgeCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

func (s *fakeStore) ImportNodes(ctx context.Context, projectID string, nodes []astparser.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, nodes...)
	return nil
}

func (s *fakeStore) ImportEdges(ctx context.Context, projectID string, edges []astparser.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edges...)
	return nil
}

func (s *fakeStore) DeleteFileSubgraphs(ctx context.Context, projectID string, filePaths []string) error {
	return nil
}

func (s *fakeStore) counts() (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes), len(s.edges)
}
