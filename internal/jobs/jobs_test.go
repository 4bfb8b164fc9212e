// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kraklabs/graphcore/internal/parse"
)

func TestCreateJob_PendingByDefault(t *testing.T) {
	m := New(10, time.Hour)
	job, err := m.CreateJob("proj_abc", "/repo")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if job.ID == "" {
		t.Error("expected a non-empty job ID")
	}
}

func TestJobLifecycle(t *testing.T) {
	m := New(10, time.Hour)
	job, _ := m.CreateJob("proj_abc", "/repo")

	if err := m.StartJob(job.ID); err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	got, _ := m.GetJob(job.ID)
	if got.Status != StatusRunning {
		t.Errorf("status = %q, want running", got.Status)
	}

	if err := m.UpdateProgress(job.ID, parse.Progress{Phase: parse.PhaseParsing, FilesTotal: 10}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, _ = m.GetJob(job.ID)
	if got.Progress.FilesTotal != 10 {
		t.Errorf("progress.FilesTotal = %d, want 10", got.Progress.FilesTotal)
	}

	result := &parse.Result{ProjectID: "proj_abc", NodesImported: 5}
	if err := m.CompleteJob(job.ID, result); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	got, _ = m.GetJob(job.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || got.Result.NodesImported != 5 {
		t.Errorf("result not recorded: %+v", got.Result)
	}
}

func TestFailJob(t *testing.T) {
	m := New(10, time.Hour)
	job, _ := m.CreateJob("proj_abc", "/repo")
	_ = m.StartJob(job.ID)

	wantErr := errors.New("parse exploded")
	if err := m.FailJob(job.ID, wantErr); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	got, _ := m.GetJob(job.ID)
	if got.Status != StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Err != wantErr {
		t.Errorf("Err = %v, want %v", got.Err, wantErr)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	m := New(10, time.Hour)
	_, err := m.GetJob("job_doesnotexist")
	var nf *ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected *ErrNotFound, got %v", err)
	}
}

func TestListJobs_FiltersByStatus(t *testing.T) {
	m := New(10, time.Hour)
	a, _ := m.CreateJob("proj_a", "/a")
	b, _ := m.CreateJob("proj_b", "/b")
	_ = m.StartJob(a.ID)

	running := m.ListJobs(StatusRunning)
	if len(running) != 1 || running[0].ID != a.ID {
		t.Errorf("expected only %s running, got %v", a.ID, running)
	}
	all := m.ListJobs("")
	if len(all) != 2 {
		t.Errorf("expected 2 jobs total, got %d", len(all))
	}
	_ = b
}

func TestCreateJob_FullSweepsTerminalThenSucceeds(t *testing.T) {
	m := New(2, time.Hour)

	first, err := m.CreateJob("proj_a", "/a")
	if err != nil {
		t.Fatalf("CreateJob(first): %v", err)
	}
	second, err := m.CreateJob("proj_b", "/b")
	if err != nil {
		t.Fatalf("CreateJob(second): %v", err)
	}
	// At capacity now (maxJobs=2), but both are terminal, so a sweep should
	// make room for a third.
	if err := m.CompleteJob(first.ID, &parse.Result{ProjectID: "proj_a"}); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	if err := m.FailJob(second.ID, errors.New("boom")); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	third, err := m.CreateJob("proj_c", "/c")
	if err != nil {
		t.Fatalf("expected sweep to make room, got: %v", err)
	}
	if len(m.ListJobs("")) != 1 || m.ListJobs("")[0].ID != third.ID {
		t.Errorf("expected only the new job to remain, got %v", m.ListJobs(""))
	}
}

func TestCreateJob_FullWithActiveJobsFails(t *testing.T) {
	m := New(1, time.Hour)
	job, err := m.CreateJob("proj_a", "/a")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	_ = m.StartJob(job.ID) // running, not terminal: sweep cannot evict it

	_, err = m.CreateJob("proj_b", "/b")
	if !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestRunSweeper_StopsOnContextCancel(t *testing.T) {
	m := New(10, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.RunSweeper(ctx, time.Millisecond, nil)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not return after context cancellation")
	}
}
