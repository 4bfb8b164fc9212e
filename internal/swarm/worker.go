// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package swarm

import (
	"context"
	"time"
)

// Executor runs a claimed task against whatever external tooling performs
// the actual edit. Interface-only in this module — concrete
// implementations (an LLM-backed code-editing agent, a shell-out to some
// other process) live outside the swarm package.
type Executor interface {
	Execute(ctx context.Context, task *SwarmTask) error
}

// Worker cycles through the sense/claim/execute/complete protocol against
// a shared Board and Store until the swarm drains or ctx is cancelled.
type Worker struct {
	AgentID    string
	Board      *Board
	Pheromones *Store
	Executor   Executor
}

// NewWorker builds a Worker bound to one agent identity and the shared
// coordination state.
func NewWorker(agentID string, board *Board, pheromones *Store, executor Executor) *Worker {
	return &Worker{AgentID: agentID, Board: board, Pheromones: pheromones, Executor: executor}
}

// claimableTasks filters a candidate list down to tasks no other agent
// currently holds a modifying or claiming pheromone on, across every node
// the task touches.
func (w *Worker) claimableTasks(candidates []*SwarmTask, now time.Time) []*SwarmTask {
	var out []*SwarmTask
	for _, t := range candidates {
		claimed := false
		for _, nodeID := range t.NodeIDs {
			if len(w.Pheromones.Sense(nodeID, []string{"modifying", "claiming"}, w.AgentID, now)) > 0 {
				claimed = true
				break
			}
		}
		if !claimed {
			out = append(out, t)
		}
	}
	return out
}

// Step runs one sense/claim/execute/complete cycle. It returns drained
// true when there was nothing claimable and nothing else in flight — the
// caller should stop calling Step once drained is true. ok reports
// whether a task was claimed and executed this step (false on drained or
// on finding no claimable task with work still in flight elsewhere).
func (w *Worker) Step(ctx context.Context, now time.Time) (drained bool, ok bool, err error) {
	available := w.Board.AvailableTasks()
	candidates := w.claimableTasks(available, now)

	if len(candidates) == 0 {
		if len(available) == 0 && w.Board.InProgressCount() == 0 {
			return true, false, nil
		}
		return false, false, nil
	}

	task := candidates[0]
	claimed, err := w.Board.Claim(task.ID)
	if err != nil {
		// Lost the race to another worker; try again next cycle.
		return false, false, nil
	}

	if len(claimed.NodeIDs) > 0 {
		w.Pheromones.Write(w.AgentID, claimed.NodeIDs[0], "modifying", 1.0, now)
	}

	execErr := w.Executor.Execute(ctx, claimed)
	if execErr != nil {
		_ = w.Board.Fail(claimed.ID, true)
		if len(claimed.NodeIDs) > 0 {
			w.Pheromones.Write(w.AgentID, claimed.NodeIDs[0], "blocked", 1.0, now)
		}
		return false, false, execErr
	}

	_ = w.Board.Complete(claimed.ID)
	if len(claimed.NodeIDs) > 0 {
		w.Pheromones.Write(w.AgentID, claimed.NodeIDs[0], "completed", 1.0, now)
	}
	return false, true, nil
}

// Run drives Step in a loop, using time.Now for each cycle's timestamp,
// until the swarm drains or ctx is cancelled. An error from task execution
// does not stop Run: Step has already marked the task failed/retryable, so
// Run simply continues.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		drained, _, _ := w.Step(ctx, time.Now())
		if drained {
			return nil
		}
	}
}
