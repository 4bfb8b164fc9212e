// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"

	"github.com/kraklabs/graphcore/pkg/astparser"
)

// chunkWorker owns one astparser.Parser instance and processes chunks sent
// to it by the pool, one at a time, never touching files outside the chunk
// it was given. It communicates exclusively via channels.
type chunkWorker struct {
	id      int
	parser  astparser.Parser
	inbox   chan workerCommand
	outbox  chan<- poolMessage
}

func newChunkWorker(id int, parser astparser.Parser, outbox chan<- poolMessage) *chunkWorker {
	return &chunkWorker{
		id:     id,
		parser: parser,
		inbox:  make(chan workerCommand, 1),
		outbox: outbox,
	}
}

// run is the worker's goroutine body. It signals ready, waits for a command,
// and loops until told to terminate or until ctx is cancelled.
func (w *chunkWorker) run(ctx context.Context) {
	for {
		select {
		case w.outbox <- poolMessage{Kind: msgReady, WorkerID: w.id}:
		case <-ctx.Done():
			return
		}

		select {
		case cmd, ok := <-w.inbox:
			if !ok {
				return
			}
			switch cmd.Kind {
			case cmdTerminate:
				return
			case cmdChunk:
				w.processChunk(ctx, cmd.ChunkIndex, cmd.Files)
			}
		case <-ctx.Done():
			return
		}
	}
}

// processChunk parses the given files with deferred-edge resolution skipped
// (cross-file references are resolved later, by the coordinator) and reports
// the outcome or error back to the pool.
func (w *chunkWorker) processChunk(ctx context.Context, chunkIndex int, files []string) {
	result, err := w.parser.ParseChunk(ctx, files, true)
	if err != nil {
		select {
		case w.outbox <- poolMessage{Kind: msgError, WorkerID: w.id, ChunkIndex: chunkIndex, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	outcome := &ChunkOutcome{
		ChunkIndex:     chunkIndex,
		Nodes:          result.Nodes,
		Edges:          result.Edges,
		DeferredEdges:  result.DeferredEdges,
		FilesProcessed: result.FilesProcessed,
		SharedContext:  result.SharedContext,
	}

	select {
	case w.outbox <- poolMessage{Kind: msgResult, WorkerID: w.id, ChunkIndex: chunkIndex, Outcome: outcome}:
	case <-ctx.Done():
	}
}

// send delivers a command to the worker's inbox; it never blocks past ctx
// cancellation.
func (w *chunkWorker) send(ctx context.Context, cmd workerCommand) {
	select {
	case w.inbox <- cmd:
	case <-ctx.Done():
	}
}
