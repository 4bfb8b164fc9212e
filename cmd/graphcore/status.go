// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/ui"
)

// ProjectStatus is one row of `status`'s output: a project's bookkeeping
// fields plus live entity counts, both text and --json output share it.
type ProjectStatus struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Status    string `json:"status"`
	Files     int64  `json:"files"`
	Functions int64  `json:"functions"`
	Types     int64  `json:"types"`
	CallEdges int64  `json:"call_edges"`
	Error     string `json:"error,omitempty"`
}

func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx := context.Background()
	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config or run: graphcore init", err), globals.JSON)
	}
	defer conn.Close(ctx)

	projects, err := conn.Store.ListProjects(ctx)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot list projects", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}

	statuses := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		counts, err := conn.Store.CountEntities(ctx, p.ID)
		st := ProjectStatus{ProjectID: p.ID, Path: p.Path, Status: p.Status}
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Files, st.Functions, st.Types, st.CallEdges = counts.Files, counts.Functions, counts.Types, counts.CallEdges
		}
		statuses = append(statuses, st)
	}

	if globals.JSON {
		_ = output.JSON(statuses)
		return
	}
	printStatusTable(statuses)
}

func printStatusTable(statuses []ProjectStatus) {
	if len(statuses) == 0 {
		ui.Info("No projects indexed yet. Run: graphcore index <path>")
		return
	}
	ui.Header("Indexed Projects")
	for _, s := range statuses {
		fmt.Printf("\n%s %s\n", ui.Label("Project ID:"), s.ProjectID)
		fmt.Printf("  Path:      %s\n", ui.DimText(s.Path))
		fmt.Printf("  Status:    %s\n", s.Status)
		if s.Error != "" {
			ui.Errorf("  Count query failed: %s", s.Error)
			continue
		}
		fmt.Printf("  Files:     %s\n", ui.CountText(int(s.Files)))
		fmt.Printf("  Functions: %s\n", ui.CountText(int(s.Functions)))
		fmt.Printf("  Types:     %s\n", ui.CountText(int(s.Types)))
		fmt.Printf("  Calls:     %s\n", ui.CountText(int(s.CallEdges)))
	}
	fmt.Fprintln(os.Stdout)
}
