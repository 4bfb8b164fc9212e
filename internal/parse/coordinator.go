// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/graphcore/internal/changedetect"
	"github.com/kraklabs/graphcore/internal/identity"
	"github.com/kraklabs/graphcore/pkg/astparser"
)

// Snapshot adapts a Store to the changedetect.Snapshot interface by reading
// the IndexedFile rows the coordinator previously wrote for this project.
type Snapshot interface {
	changedetect.Snapshot
}

// Config configures a parse run.
type Config struct {
	ProjectRoot       string
	ExcludeGlobs      []string
	ParallelThreshold int // use the worker pool iff totalFiles >= this; default 20
	ChunkSize         int // default 50
	PoolOverride      int // 0 = default 0.75*CPU sizing
	ProjectType       string
}

// Coordinator orchestrates change detection, chunk dispatch (pool or
// streaming), and project lifecycle in the store.
type Coordinator struct {
	Store      Store
	Snapshot   Snapshot
	NewParser  ParserFactory
	Logger     *slog.Logger
}

// Run executes a full parse operation for projectRoot and reports progress
// via onProgress. The Project node is upserted to status=parsing before
// work begins and updated to complete/failed on termination, even on error.
func (c *Coordinator) Run(ctx context.Context, cfg Config, onProgress ProgressFunc) (result *Result, err error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	projectID := identity.GenerateID(cfg.ProjectRoot)
	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	if err := c.Store.ClearProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("clear project: %w", err)
	}
	if err := c.Store.UpsertProject(ctx, projectID, cfg.ProjectRoot, "", "parsing"); err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}

	// Whatever happens below, the project must leave "parsing" state.
	defer func() {
		status := "complete"
		nodeCount, edgeCount := 0, 0
		if result != nil {
			nodeCount, edgeCount = result.NodesImported, result.EdgesImported
		}
		if err != nil {
			status = "failed"
		}
		if statusErr := c.Store.UpdateProjectStatus(ctx, projectID, status, nodeCount, edgeCount); statusErr != nil {
			logger.Error("parse.coordinator.status_update_failed", "project_id", projectID, "err", statusErr)
		}
	}()

	emit(Progress{Phase: PhaseDiscovery})
	detector := changedetect.New(cfg.ProjectRoot, cfg.ExcludeGlobs, logger)
	changes, detErr := detector.Detect(c.Snapshot)
	if detErr != nil {
		return nil, fmt.Errorf("detect changes: %w", detErr)
	}

	if len(changes.FilesToDelete) > 0 {
		if delErr := c.Store.DeleteFileSubgraphs(ctx, projectID, changes.FilesToDelete); delErr != nil {
			return nil, fmt.Errorf("delete stale subgraphs: %w", delErr)
		}
	}

	totalFiles := len(changes.FilesToReparse)
	emit(Progress{Phase: PhaseParsing, FilesTotal: totalFiles})

	threshold := cfg.ParallelThreshold
	if threshold <= 0 {
		threshold = 20
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}
	chunks := Partition(changes.FilesToReparse, chunkSize)

	stats := PoolStats{ChunksTotal: len(chunks)}
	filesProcessed := 0
	var runErr error
	var activeParser astparser.Parser

	onComplete := func(outcome *ChunkOutcome, s PoolStats) error {
		filesProcessed += outcome.FilesProcessed
		// StreamingImporter.Run already imports each chunk's nodes/edges
		// directly before invoking this callback; only the pool path (which
		// never touches the store itself) needs onComplete to do the import.
		if activeParser != nil {
			if impErr := c.Store.ImportNodes(ctx, projectID, outcome.Nodes); impErr != nil {
				return fmt.Errorf("import nodes for chunk %d: %w", outcome.ChunkIndex, impErr)
			}
			if impErr := c.Store.ImportEdges(ctx, projectID, outcome.Edges); impErr != nil {
				return fmt.Errorf("import edges for chunk %d: %w", outcome.ChunkIndex, impErr)
			}
		}
		// Workers skip deferred-edge resolution; the coordinator merges each
		// chunk's deferred refs and shared context into the single parser
		// instance that will perform the resolution pass once every chunk
		// has completed.
		if activeParser != nil {
			if len(outcome.DeferredEdges) > 0 {
				if mErr := activeParser.MergeDeferredEdges(outcome.DeferredEdges); mErr != nil {
					return fmt.Errorf("merge deferred edges for chunk %d: %w", outcome.ChunkIndex, mErr)
				}
			}
			if len(outcome.SharedContext) > 0 {
				if mErr := activeParser.MergeSerializedSharedContext(outcome.SharedContext); mErr != nil {
					return fmt.Errorf("merge shared context for chunk %d: %w", outcome.ChunkIndex, mErr)
				}
			}
		}
		emit(Progress{
			Phase:          PhaseImporting,
			FilesTotal:     totalFiles,
			FilesProcessed: filesProcessed,
			NodesImported:  s.NodesImported,
			EdgesImported:  s.EdgesImported,
			CurrentChunk:   outcome.ChunkIndex + 1,
			TotalChunks:    s.ChunksTotal,
		})
		return nil
	}

	if len(chunks) == 0 {
		// Nothing to parse this run; deletions alone are still a valid outcome.
	} else if totalFiles >= threshold {
		parser, pErr := c.NewParser(0)
		if pErr != nil {
			return nil, fmt.Errorf("create parser: %w", pErr)
		}
		if cfg.ProjectType != "" {
			_ = parser.LoadFrameworkSchemasForType(cfg.ProjectType)
		}
		activeParser = parser
		pool := &Pool{NewParser: c.NewParser, Override: cfg.PoolOverride}
		stats, runErr = pool.Run(ctx, chunks, onComplete)

		if runErr == nil {
			emit(Progress{Phase: PhaseResolving, FilesTotal: totalFiles, FilesProcessed: filesProcessed})
			resolved, resErr := parser.ResolveDeferredEdges(ctx)
			if resErr != nil {
				runErr = fmt.Errorf("resolve deferred edges: %w", resErr)
			} else if len(resolved) > 0 {
				if impErr := c.Store.ImportEdges(ctx, projectID, resolved); impErr != nil {
					runErr = fmt.Errorf("import resolved edges: %w", impErr)
				} else {
					stats.EdgesImported += len(resolved)
				}
			}
		}
		if runErr == nil {
			enhancements, enhErr := parser.ApplyEdgeEnhancementsManually(ctx)
			if enhErr != nil {
				runErr = fmt.Errorf("apply edge enhancements: %w", enhErr)
			} else if len(enhancements) > 0 {
				if impErr := c.Store.ImportEdges(ctx, projectID, enhancements); impErr != nil {
					runErr = fmt.Errorf("import enhancement edges: %w", impErr)
				} else {
					stats.EdgesImported += len(enhancements)
				}
			}
		}
	} else {
		parser, pErr := c.NewParser(0)
		if pErr != nil {
			return nil, fmt.Errorf("create parser: %w", pErr)
		}
		if cfg.ProjectType != "" {
			_ = parser.LoadFrameworkSchemasForType(cfg.ProjectType)
		}
		importer := &StreamingImporter{Parser: parser, Store: c.Store}
		stats, runErr = importer.Run(ctx, projectID, chunks, onComplete)
	}

	if runErr != nil {
		return nil, runErr
	}

	emit(Progress{
		Phase:          PhaseComplete,
		FilesTotal:     totalFiles,
		FilesProcessed: filesProcessed,
		NodesImported:  stats.NodesImported,
		EdgesImported:  stats.EdgesImported,
	})

	return &Result{
		ProjectID:      projectID,
		FilesProcessed: filesProcessed,
		NodesImported:  stats.NodesImported,
		EdgesImported:  stats.EdgesImported,
		Duration:       time.Since(start),
	}, nil
}
