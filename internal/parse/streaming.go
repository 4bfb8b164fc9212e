// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"
	"fmt"

	"github.com/kraklabs/graphcore/pkg/astparser"
)

// StreamingImporter is the sequential fallback used for small projects: it
// partitions files into chunks, parses and imports each one in turn, and
// resolves deferred edges once after the final chunk.
type StreamingImporter struct {
	Parser astparser.Parser
	Store  Store
}

// Run imports every chunk sequentially and returns the accumulated outcome.
// Unlike the worker pool, there is no pipelining here: chunk N+1 is not
// parsed until chunk N has been imported.
func (s *StreamingImporter) Run(ctx context.Context, projectID string, chunks [][]string, onComplete OnChunkComplete) (PoolStats, error) {
	stats := PoolStats{ChunksTotal: len(chunks)}

	for i, files := range chunks {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		result, err := s.Parser.ParseChunk(ctx, files, true)
		if err != nil {
			return stats, fmt.Errorf("chunk %d: %w", i, err)
		}

		if err := s.Store.ImportNodes(ctx, projectID, result.Nodes); err != nil {
			return stats, fmt.Errorf("import nodes for chunk %d: %w", i, err)
		}
		if err := s.Store.ImportEdges(ctx, projectID, result.Edges); err != nil {
			return stats, fmt.Errorf("import edges for chunk %d: %w", i, err)
		}

		stats.ChunksCompleted++
		stats.NodesImported += len(result.Nodes)
		stats.EdgesImported += len(result.Edges)

		if len(result.DeferredEdges) > 0 {
			if err := s.Parser.MergeDeferredEdges(result.DeferredEdges); err != nil {
				return stats, fmt.Errorf("merge deferred edges for chunk %d: %w", i, err)
			}
		}
		if len(result.SharedContext) > 0 {
			if err := s.Parser.MergeSerializedSharedContext(result.SharedContext); err != nil {
				return stats, fmt.Errorf("merge shared context for chunk %d: %w", i, err)
			}
		}

		outcome := &ChunkOutcome{
			ChunkIndex:     i,
			Nodes:          result.Nodes,
			Edges:          result.Edges,
			DeferredEdges:  result.DeferredEdges,
			FilesProcessed: result.FilesProcessed,
			SharedContext:  result.SharedContext,
		}
		if onComplete != nil {
			if err := onComplete(outcome, stats); err != nil {
				return stats, err
			}
		}
	}

	resolved, err := s.Parser.ResolveDeferredEdges(ctx)
	if err != nil {
		return stats, fmt.Errorf("resolve deferred edges: %w", err)
	}
	if len(resolved) > 0 {
		if err := s.Store.ImportEdges(ctx, projectID, resolved); err != nil {
			return stats, fmt.Errorf("import resolved edges: %w", err)
		}
		stats.EdgesImported += len(resolved)
	}

	enhancements, err := s.Parser.ApplyEdgeEnhancementsManually(ctx)
	if err != nil {
		return stats, fmt.Errorf("apply edge enhancements: %w", err)
	}
	if len(enhancements) > 0 {
		if err := s.Store.ImportEdges(ctx, projectID, enhancements); err != nil {
			return stats, fmt.Errorf("import enhancement edges: %w", err)
		}
		stats.EdgesImported += len(enhancements)
	}

	return stats, nil
}
