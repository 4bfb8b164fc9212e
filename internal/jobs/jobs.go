// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package jobs tracks asynchronous parse operations so a CLI caller or an
// HTTP handler can poll progress without blocking on the operation itself.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/kraklabs/graphcore/internal/parse"
)

// Status is a ParseJob's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a tracked parse operation.
type Job struct {
	ID          string
	Status      Status
	ProjectID   string
	ProjectPath string
	Progress    parse.Progress
	Result      *parse.Result
	Err         error
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ErrFull is returned by CreateJob when the manager is at capacity and
// sweeping every terminal job still leaves no room.
var ErrFull = fmt.Errorf("job manager at capacity")

// ErrNotFound is returned by operations addressing a job ID that is not
// tracked (never existed or was already swept).
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("job not found: %s", e.ID) }

// Manager is a bounded, in-memory, process-wide job tracker.
type Manager struct {
	maxJobs int
	ttl     time.Duration

	mu   sync.Mutex
	jobs map[string]*Job
}

// New builds a Manager. maxJobs<=0 defaults to 1000; ttl<=0 defaults to 1h.
func New(maxJobs int, ttl time.Duration) *Manager {
	if maxJobs <= 0 {
		maxJobs = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		maxJobs: maxJobs,
		ttl:     ttl,
		jobs:    make(map[string]*Job),
	}
}

func generateJobID() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return "job_" + hex.EncodeToString(buf[:])
}

// CreateJob registers a new pending job. If the manager is full, it first
// sweeps every terminal job regardless of age; if still full, it fails.
func (m *Manager) CreateJob(projectID, projectPath string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) >= m.maxJobs {
		m.sweepTerminalLocked()
		if len(m.jobs) >= m.maxJobs {
			return nil, ErrFull
		}
	}

	now := time.Now()
	job := &Job{
		ID:          generateJobID(),
		Status:      StatusPending,
		ProjectID:   projectID,
		ProjectPath: projectPath,
		Progress:    parse.Progress{Phase: parse.PhasePending},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.jobs[job.ID] = job
	return job, nil
}

// StartJob transitions a pending job to running.
func (m *Manager) StartJob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	return nil
}

// UpdateProgress records the latest progress snapshot for a running job.
func (m *Manager) UpdateProgress(id string, progress parse.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	job.Progress = progress
	job.UpdatedAt = time.Now()
	return nil
}

// CompleteJob marks a job completed with its final result.
func (m *Manager) CompleteJob(id string, result *parse.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	job.Status = StatusCompleted
	job.Result = result
	job.Progress.Phase = parse.PhaseComplete
	job.UpdatedAt = time.Now()
	return nil
}

// FailJob marks a job failed with the error that terminated it.
func (m *Manager) FailJob(id string, jobErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	job.Status = StatusFailed
	job.Err = jobErr
	job.UpdatedAt = time.Now()
	return nil
}

// GetJob returns a copy of the tracked job.
func (m *Manager) GetJob(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, &ErrNotFound{ID: id}
	}
	return *job, nil
}

// ListJobs returns a snapshot of tracked jobs, optionally filtered by status.
// An empty status lists every job.
func (m *Manager) ListJobs(status Status) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, *job)
	}
	return out
}

// CleanupOldJobs removes terminal jobs older than maxAge, returning the
// count removed.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range m.jobs {
		if job.Status.terminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// sweepTerminalLocked removes every terminal job regardless of age. Callers
// must hold m.mu.
func (m *Manager) sweepTerminalLocked() {
	for id, job := range m.jobs {
		if job.Status.terminal() {
			delete(m.jobs, id)
		}
	}
}
