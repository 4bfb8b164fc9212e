// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/identity"
	"github.com/kraklabs/graphcore/internal/ui"
)

func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("reset", pflag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm the destructive reset without prompting")
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	if fs.NArg() == 0 {
		errors.FatalError(errors.NewInputError("Missing project",
			"reset requires a project id or path",
			"Run: graphcore reset <project-id-or-path> --yes"), globals.JSON)
	}
	target := fs.Arg(0)

	if !*yes {
		errors.FatalError(errors.NewInputError("Reset requires confirmation",
			"this permanently deletes every node and edge owned by the project",
			"Re-run with --yes to confirm"), globals.JSON)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx := context.Background()
	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config", err), globals.JSON)
	}
	defer conn.Close(ctx)

	lookup := storeLookup{ctx: ctx, store: conn.Store}
	projectID, err := identity.Resolve(target, lookup)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Project not found",
			err.Error(), "Run: graphcore status"), globals.JSON)
	}

	if err := conn.Store.ClearProject(ctx, projectID); err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot reset project", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}

	ui.Successf("Reset project %s", projectID)
	ui.Info("Next steps: graphcore index <path>")
}
