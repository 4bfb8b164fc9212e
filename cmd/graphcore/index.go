// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/identity"
	"github.com/kraklabs/graphcore/internal/metrics"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/parse"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/astparser"
	"github.com/kraklabs/graphcore/pkg/embedclient"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

// newParser is the AST-parser extension point: graphcore's core module
// declares the astparser.Parser contract but does not implement it. A build
// that wants `index` to work wires a concrete astparser.Factory in here
// (typically from an init() in a sibling file or a build tag); left nil,
// runIndex fails fast with an actionable error instead of panicking deep
// inside the parse coordinator.
var newParser astparser.Factory

func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("index", pflag.ExitOnError)
	full := fs.Bool("full", false, "Accepted but has no effect: every run clears the project's graph before parsing")
	embed := fs.Bool("embed", false, "Compute embeddings for functions after parsing")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address while indexing (e.g. :9090)")
	projectType := fs.String("project-type", "", "Project type hint passed to the AST parser (e.g. go, typescript)")
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

	if newParser == nil {
		errors.FatalError(errors.NewConfigError(
			"No AST parser is wired into this build",
			"astparser.Factory is nil: graphcore's core module only declares the parser contract",
			"Link a build that registers a concrete astparser.Factory before calling index",
			nil,
		), globals.JSON)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config or run: graphcore init", err), globals.JSON)
	}
	defer conn.Close(ctx)

	projectID := identity.GenerateID(absRoot)

	progressCfg := NewProgressConfig(globals)
	pb := NewSpinner(progressCfg, "Parsing "+absRoot)

	coordinator := &parse.Coordinator{
		Store:     conn.Store,
		Snapshot:  graphstore.ProjectSnapshot{Store: conn.Store, ProjectID: projectID, Ctx: ctx},
		NewParser: adaptParserFactory(newParser, astparser.Config{WorkspacePath: absRoot, ProjectType: *projectType, ProjectID: projectID}),
		Logger:    slog.Default(),
	}

	parseCfg := parse.Config{
		ProjectRoot: absRoot,
		ProjectType: *projectType,
	}
	if *full {
		parseCfg.ParallelThreshold = 0
	}

	job, jobErr := jobManager.CreateJob(projectID, absRoot)
	if jobErr != nil {
		errors.FatalError(errors.NewInternalError("Cannot track index job", jobErr.Error(),
			"This is a bug", jobErr), globals.JSON)
	}
	_ = jobManager.StartJob(job.ID)

	m := metrics.Get()
	onProgress := func(p parse.Progress) {
		m.FilesDiscovered.Add(float64(p.FilesProcessed))
		_ = jobManager.UpdateProgress(job.ID, p)
		if pb != nil {
			_ = pb.Add(1)
		}
	}

	started := time.Now()
	result, err := coordinator.Run(ctx, parseCfg, onProgress)
	if pb != nil {
		_ = pb.Finish()
	}
	if err != nil {
		_ = jobManager.FailJob(job.ID, err)
		errors.FatalError(errors.NewInternalError("Indexing failed", err.Error(),
			"Check the graph store logs; the project's status has been marked failed", err), globals.JSON)
	}
	_ = jobManager.CompleteJob(job.ID, result)
	m.ParseDuration.Observe(time.Since(started).Seconds())
	m.NodesImported.Add(float64(result.NodesImported))
	m.EdgesImported.Add(float64(result.EdgesImported))

	if *embed {
		runEmbedStep(ctx, cfg, conn.Store, projectID, progressCfg, globals)
	}

	if globals.JSON {
		_ = output.JSON(IndexResponse{Result: result, JobID: job.ID})
		return
	}
	ui.Successf("Indexed %s: %d files, %d nodes, %d edges in %s (job %s)",
		absRoot, result.FilesProcessed, result.NodesImported, result.EdgesImported, result.Duration, job.ID)
}

// IndexResponse is `index --json`'s output shape: the parse result plus the
// job id jobManager tracked this run under.
type IndexResponse struct {
	*parse.Result
	JobID string `json:"job_id"`
}

// adaptParserFactory curries a CLI-supplied astparser.Config over the
// package-level Factory to produce the parse.ParserFactory signature the
// pool expects, which additionally threads a workerID the AST parser itself
// has no use for.
func adaptParserFactory(factory astparser.Factory, base astparser.Config) parse.ParserFactory {
	return func(workerID int) (astparser.Parser, error) {
		cfg := base
		return factory(cfg)
	}
}

func runEmbedStep(ctx context.Context, cfg *config.Config, store *graphstore.Store, projectID string, progressCfg ProgressConfig, globals GlobalFlags) {
	if cfg.Embedding.APIKey == "" {
		ui.Warning("Skipping --embed: embedding.api_key is not configured")
		return
	}
	candidates, err := store.FunctionsNeedingEmbeddings(ctx, projectID)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot list functions needing embeddings", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}
	if len(candidates) == 0 {
		return
	}

	client := embedclient.New(cfg.Embedding.APIKey, cfg.Embedding.Endpoint, cfg.Embedding.Model)
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.SourceCode
	}

	bar := NewProgressBar(progressCfg, int64(len(candidates)), "Embedding functions")
	vectors, err := client.EmbedBatch(ctx, texts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewNetworkError("Cannot compute embeddings", err.Error(),
			"Check embedding.endpoint/api_key, or rerun index without --embed", err), globals.JSON)
	}

	out := make(map[string][]float32, len(candidates))
	for i, c := range candidates {
		out[c.ID] = vectors[i]
	}
	if err := store.SetEmbeddings(ctx, out); err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot store computed embeddings", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Default().Warn("metrics.serve.failed", "addr", addr, "err", err)
	}
}

