// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/kraklabs/graphcore/pkg/astparser"
)

// terminateGrace is how long the pool waits for a worker to exit cooperatively
// after sending it a terminate command before force-terminating.
const terminateGrace = 15 * time.Second

// OnChunkComplete is invoked once per completed chunk, in arrival order, as
// soon as its result is available. The pool treats this as a suspension
// point: Run does not resolve until every invocation has returned.
type OnChunkComplete func(outcome *ChunkOutcome, stats PoolStats) error

// PoolStats carries running totals the coordinator can use for progress
// reporting.
type PoolStats struct {
	ChunksCompleted int
	ChunksTotal     int
	NodesImported   int
	EdgesImported   int
}

// PoolSize implements the sizing rule from the component spec: the pool never
// uses more workers than there are chunks, and defaults to three quarters of
// the available CPUs unless the caller supplies an override.
func PoolSize(chunkCount, override int) int {
	if chunkCount <= 0 {
		return 0
	}
	n := override
	if n <= 0 {
		n = int(0.75 * float64(runtime.NumCPU()))
		if n < 1 {
			n = 1
		}
	}
	if n > chunkCount {
		n = chunkCount
	}
	return n
}

// ParserFactory builds one astparser.Parser instance per worker; each worker
// owns its parser exclusively for the pool's lifetime.
type ParserFactory func(workerID int) (astparser.Parser, error)

// Pool is a pull-based worker pool over chunkWorker instances. Workers
// dequeue chunks in FIFO order as they become ready; results may complete
// out of order, but the reported chunk index is never repeated.
type Pool struct {
	NewParser ParserFactory
	Override  int // 0 means use the default 0.75*CPU sizing
}

// Run dispatches every chunk to the pool and returns once all chunks have
// completed, every onComplete callback has settled, and — on the happy
// path — every worker has exited. On worker error the pool initiates
// shutdown and returns the first error it observed.
func (p *Pool) Run(ctx context.Context, chunks [][]string, onComplete OnChunkComplete) (PoolStats, error) {
	if len(chunks) == 0 {
		return PoolStats{}, nil
	}

	numWorkers := PoolSize(len(chunks), p.Override)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outbox := make(chan poolMessage, numWorkers*2)
	workers := make([]*chunkWorker, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		parser, err := p.NewParser(i)
		if err != nil {
			cancel()
			return PoolStats{}, fmt.Errorf("create parser for worker %d: %w", i, err)
		}
		w := newChunkWorker(i, parser, outbox)
		workers[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(runCtx)
		}()
	}

	queue := make([]int, len(chunks))
	for i := range queue {
		queue[i] = i
	}
	nextIdx := 0
	inFlight := make(map[int]int) // chunkIndex -> workerID
	reported := make(map[int]bool)

	stats := PoolStats{ChunksTotal: len(chunks)}
	var callbackWG sync.WaitGroup
	var callbackErrMu sync.Mutex
	var callbackErr error

	// One goroutine runs the callbacks in arrival order, so invocations never
	// overlap while the workers keep parsing.
	callbacks := make(chan func(), len(chunks))
	go func() {
		for fn := range callbacks {
			fn()
		}
	}()

	var firstErr error
	done := 0

	for done < len(chunks) && firstErr == nil {
		select {
		case msg := <-outbox:
			switch msg.Kind {
			case msgReady:
				if nextIdx < len(queue) {
					chunkIdx := queue[nextIdx]
					nextIdx++
					inFlight[msg.WorkerID] = chunkIdx
					workers[msg.WorkerID].send(runCtx, workerCommand{Kind: cmdChunk, ChunkIndex: chunkIdx, Files: chunks[chunkIdx]})
				} else {
					workers[msg.WorkerID].send(runCtx, workerCommand{Kind: cmdTerminate})
				}

			case msgResult:
				delete(inFlight, msg.WorkerID)
				if reported[msg.ChunkIndex] {
					continue // a chunk index is reported at most once
				}
				reported[msg.ChunkIndex] = true
				done++
				stats.ChunksCompleted = done
				stats.NodesImported += len(msg.Outcome.Nodes)
				stats.EdgesImported += len(msg.Outcome.Edges)

				if onComplete != nil {
					outcome, statsCopy := msg.Outcome, stats
					callbackWG.Add(1)
					callbacks <- func() {
						defer callbackWG.Done()
						if err := onComplete(outcome, statsCopy); err != nil {
							callbackErrMu.Lock()
							if callbackErr == nil {
								callbackErr = err
							}
							callbackErrMu.Unlock()
						}
					}
				}

			case msgError:
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d: %w", msg.ChunkIndex, msg.Err)
				}
			}

		case <-ctx.Done():
			firstErr = ctx.Err()
		}
	}

	// processChunks resolves only after every queued callback has settled.
	close(callbacks)
	callbackWG.Wait()

	p.shutdown(runCtx, cancel, workers, &wg)

	if firstErr != nil {
		return stats, firstErr
	}
	callbackErrMu.Lock()
	defer callbackErrMu.Unlock()
	return stats, callbackErr
}

// shutdown sends terminate to every worker still running, waits up to
// terminateGrace for cooperative exit, then cancels the context to force
// any stragglers to return.
func (p *Pool) shutdown(ctx context.Context, cancel context.CancelFunc, workers []*chunkWorker, wg *sync.WaitGroup) {
	for _, w := range workers {
		select {
		case w.inbox <- workerCommand{Kind: cmdTerminate}:
		default:
		}
	}

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(terminateGrace):
	}
	cancel()
	<-waited
}
