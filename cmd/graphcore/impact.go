// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/analysis"
	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/identity"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

func runImpact(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("impact", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	maxDepth := fs.Int("max-depth", 5, "Transitive traversal depth")
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	if fs.NArg() == 0 {
		errors.FatalError(errors.NewInputError("Missing target",
			"impact requires a node id or file path", "Run: graphcore impact <target> --project <id>"), globals.JSON)
	}
	target := fs.Arg(0)

	ctx := context.Background()
	conn := connectOrExit(ctx, configPath, globals)
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, *project, globals)

	reader := graphstore.NewAnalysisStore(conn.Store, projectID)
	engine := analysis.NewImpactEngine(reader)
	result, err := engine.Analyze(ctx, target, *maxDepth)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Cannot analyze impact", err.Error(), "Run: graphcore trace <node-id> to explore valid ids"), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printImpactReport(result)
}

func printImpactReport(r *analysis.ImpactResult) {
	ui.Header("Impact Analysis")
	fmt.Printf("Targets:          %d\n", len(r.Target))
	fmt.Printf("Direct deps:      %s\n", ui.CountText(r.DirectCount))
	fmt.Printf("Transitive deps:  %s\n", ui.CountText(r.TransitiveCount))
	fmt.Printf("Score:            %.2f\n", r.Score)
	fmt.Printf("Risk level:       %s\n", r.Level)
	if len(r.CriticalPaths) > 0 {
		ui.SubHeader("\nCritical paths:")
		for _, p := range r.CriticalPaths {
			fmt.Printf("  %s (weight %.2f)\n", p, p.Weight)
		}
	}
}

// connectOrExit is the shared config-load + store-connect prelude every
// read-only analysis subcommand needs.
func connectOrExit(ctx context.Context, configPath string, globals GlobalFlags) *bootstrap.Connection {
	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config or run: graphcore init", err), globals.JSON)
	}
	return conn
}

// resolveProjectOrExit resolves a project flag value (id, name, or path) to
// a project id, defaulting to the current directory when input is empty.
func resolveProjectOrExit(ctx context.Context, store *graphstore.Store, input string, globals GlobalFlags) string {
	if input == "" {
		input = "."
	}
	lookup := storeLookup{ctx: ctx, store: store}
	projectID, err := identity.Resolve(input, lookup)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Project not found", err.Error(), "Run: graphcore status"), globals.JSON)
	}
	return projectID
}
