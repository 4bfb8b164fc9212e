// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/identity"
	"github.com/kraklabs/graphcore/internal/metrics"
	"github.com/kraklabs/graphcore/internal/parse"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/astparser"
	"github.com/kraklabs/graphcore/pkg/fswatch"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

func pidFilePath(root string) string {
	return filepath.Join(root, ".graphcore", "watch.pid")
}

// runWatch runs the D4 incremental re-index daemon in the foreground until
// interrupted, or (given --stop) signals a daemon already running against
// root to shut down.
func runWatch(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("watch", pflag.ExitOnError)
	stop := fs.Bool("stop", false, "Signal a running watch daemon for this path to shut down")
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		errors.FatalError(errors.NewInputError("Invalid project path", err.Error(), "Pass an existing directory"), globals.JSON)
	}

	if *stop {
		stopWatch(absRoot, globals)
		return
	}

	if newParser == nil {
		errors.FatalError(errors.NewConfigError(
			"No AST parser is wired into this build",
			"astparser.Factory is nil: graphcore's core module only declares the parser contract",
			"Link a build that registers a concrete astparser.Factory before calling watch",
			nil,
		), globals.JSON)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if err := writePIDFile(absRoot); err != nil {
		errors.FatalError(errors.NewPermissionError("Cannot write PID file", err.Error(), "Check write permissions under "+absRoot, err), globals.JSON)
	}
	defer os.Remove(pidFilePath(absRoot))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config", err), globals.JSON)
	}
	defer conn.Close(ctx)

	projectID := identity.GenerateID(absRoot)
	runID := uuid.NewString()
	logger := slog.Default().With("watch_run_id", runID, "project_id", projectID)
	logger.Info("watch.start", "root", absRoot)

	go jobManager.RunSweeper(ctx, 0, logger)

	m := metrics.Get()
	trigger := func(triggerCtx context.Context, changedPaths []string) {
		logger.Info("watch.trigger", "changed_files", len(changedPaths))
		m.FilesReparsed.Add(float64(len(changedPaths)))

		job, jobErr := jobManager.CreateJob(projectID, absRoot)
		if jobErr != nil {
			logger.Error("watch.reparse.job_tracking_failed", "err", jobErr)
			return
		}
		_ = jobManager.StartJob(job.ID)

		coordinator := &parse.Coordinator{
			Store:     conn.Store,
			Snapshot:  graphstore.ProjectSnapshot{Store: conn.Store, ProjectID: projectID, Ctx: triggerCtx},
			NewParser: adaptParserFactory(newParser, astparser.Config{WorkspacePath: absRoot, ProjectID: projectID}),
			Logger:    logger,
		}
		started := time.Now()
		onProgress := func(p parse.Progress) { _ = jobManager.UpdateProgress(job.ID, p) }
		result, err := coordinator.Run(triggerCtx, parse.Config{ProjectRoot: absRoot}, onProgress)
		if err != nil {
			_ = jobManager.FailJob(job.ID, err)
			logger.Error("watch.reparse.failed", "err", err)
			return
		}
		_ = jobManager.CompleteJob(job.ID, result)
		m.ParseDuration.Observe(time.Since(started).Seconds())
		m.NodesImported.Add(float64(result.NodesImported))
		m.EdgesImported.Add(float64(result.EdgesImported))
		logger.Info("watch.reparse.done", "job_id", job.ID, "files", result.FilesProcessed, "nodes", result.NodesImported, "edges", result.EdgesImported)
	}

	watcher, err := fswatch.New(absRoot, cfg.ChangeDetect.ExcludeGlobs, cfg.Watch.DebounceInterval, trigger)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot start file watcher", err.Error(), "Check the path exists and is readable", err), globals.JSON)
	}
	defer watcher.Close()

	ui.Successf("Watching %s (run %s)", absRoot, runID)
	if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
		errors.FatalError(errors.NewInternalError("Watcher stopped unexpectedly", err.Error(), "Check the watcher logs", err), globals.JSON)
	}
	ui.Info("Watch stopped")
}

func writePIDFile(root string) error {
	path := pidFilePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func stopWatch(root string, globals GlobalFlags) {
	data, err := os.ReadFile(pidFilePath(root))
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("No watch daemon found",
			fmt.Sprintf("no PID file at %s", pidFilePath(root)), "Start one with: graphcore watch "+root), globals.JSON)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		errors.FatalError(errors.NewInternalError("Corrupt PID file", err.Error(), "Remove "+pidFilePath(root)+" and restart the daemon", err), globals.JSON)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Process not found", err.Error(), "The daemon may have already exited"), globals.JSON)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		errors.FatalError(errors.NewInternalError("Cannot signal watch daemon", err.Error(), "The process may already be gone; remove the PID file manually", err), globals.JSON)
	}
	ui.Successf("Sent stop signal to watch daemon (pid %d)", pid)
}
