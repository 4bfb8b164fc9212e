// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/analysis"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

func runTrace(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("trace", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	maxDepth := fs.Int("max-depth", 5, "Traversal depth (clamped to [1,10])")
	limit := fs.Int("limit", 10, "Per-chain-group truncation, 0 = unlimited")
	includeStart := fs.Bool("include-start", false, "Include the start node itself in the result")
	title := fs.String("title", "", "Title for the rendered report")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		errors.FatalError(errors.NewInputError("Missing node id",
			"trace requires a node id", "Run: graphcore trace <node-id> --project <id>"), globals.JSON)
	}
	nodeID := fs.Arg(0)

	ctx := context.Background()
	conn := connectOrExit(ctx, configPath, globals)
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, *project, globals)

	reader := graphstore.NewAnalysisStore(conn.Store, projectID)
	engine := analysis.NewTraversalEngine(reader)
	result, err := engine.TraverseFromNode(ctx, nodeID, analysis.TraversalOptions{
		MaxDepth:            *maxDepth,
		Limit:               *limit,
		IncludeStartDetails: *includeStart,
		Title:               *title,
	})
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Cannot trace node", err.Error(), "Run: graphcore status to confirm the project is indexed"), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	fmt.Print(result.Report())
}
