// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/analysis"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/swarm"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

// runSwarm dispatches to sense/claim/decompose. Every subcommand builds and
// discards its own Board/pheromone Store within this one process
// invocation — swarm state does not persist across separate CLI runs,
// mirroring the job manager's process-lifetime-only design.
func runSwarm(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		errors.FatalError(errors.NewInputError("Missing swarm subcommand",
			"swarm requires sense, claim, or decompose", "Run: graphcore swarm decompose \"<description>\" <target>"), globals.JSON)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "decompose":
		runSwarmDecompose(rest, configPath, globals)
	case "sense":
		runSwarmSense(rest, configPath, globals)
	case "claim":
		runSwarmClaim(rest, configPath, globals)
	default:
		errors.FatalError(errors.NewInputError("Unknown swarm subcommand",
			fmt.Sprintf("%q is not sense, claim, or decompose", sub), "Run: graphcore swarm decompose \"<description>\" <target>"), globals.JSON)
	}
}

func runSwarmDecompose(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("swarm decompose", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	maxDepth := fs.Int("max-depth", 3, "Impact analysis depth per affected node")
	priority := fs.String("priority", "normal", "Base priority: backlog, low, normal, high, critical")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		errors.FatalError(errors.NewInputError("Missing arguments",
			"decompose requires a description and a target", "Run: graphcore swarm decompose \"<description>\" <target>"), globals.JSON)
	}
	description, target := fs.Arg(0), fs.Arg(1)

	ctx := context.Background()
	conn := connectOrExit(ctx, configPath, globals)
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, *project, globals)
	reader := graphstore.NewAnalysisStore(conn.Store, projectID)

	affectedNodes, err := reader.ResolveTargetNodes(ctx, target)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot resolve target", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}
	if len(affectedNodes) == 0 {
		errors.FatalError(errors.NewNotFoundError("Target not found", fmt.Sprintf("no node resolves from %q", target), "Run: graphcore trace <node-id> to explore valid ids"), globals.JSON)
	}

	engine := analysis.NewImpactEngine(reader)
	impactMap := make(map[string]swarm.NodeImpact, len(affectedNodes))
	for _, n := range affectedNodes {
		result, err := engine.Analyze(ctx, n.ID, *maxDepth)
		if err != nil {
			continue
		}
		files := make(map[string]bool)
		if deps, depErr := reader.TransitiveDependents(ctx, n.ID, *maxDepth); depErr == nil {
			for _, d := range deps {
				files[d.Node.FilePath] = true
			}
		}
		impactMap[n.ID] = swarm.NodeImpact{Level: result.Level, AffectedFiles: files}
	}

	decomposition := swarm.Decompose(description, affectedNodes, impactMap, parsePriority(*priority))

	if globals.JSON {
		_ = output.JSON(decomposition)
		return
	}
	printDecomposition(decomposition)
}

func printDecomposition(d *swarm.Decomposition) {
	ui.Header("Task Decomposition")
	fmt.Printf("Estimated complexity: %s\n", d.EstimatedComplexity)
	fmt.Printf("Parallelisable:        %d\n", len(d.ParallelisableIDs))
	fmt.Printf("Sequential:            %d\n\n", len(d.SequentialIDs))
	for _, t := range d.Tasks {
		fmt.Printf("  [%s] %-10s %-8s %s (%s)\n", t.ID, t.Type, priorityName(t.Priority), t.Title, t.FilePath)
	}
}

// runSwarmSense and runSwarmClaim both re-decompose description+target into
// a fresh Board within this process, then perform one protocol step against
// it. There is no cross-run task queue: a swarm's Board and pheromone Store
// live only as long as the CLI invocation that built them.
func runSwarmSense(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("swarm sense", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	priority := fs.String("priority", "normal", "Base priority: backlog, low, normal, high, critical")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		errors.FatalError(errors.NewInputError("Missing arguments", "sense requires a description and a target",
			"Run: graphcore swarm sense \"<description>\" <target>"), globals.JSON)
	}
	board := buildEphemeralBoard(fs.Arg(0), fs.Arg(1), configPath, *project, parsePriority(*priority), globals)
	available := board.AvailableTasks()

	if globals.JSON {
		_ = output.JSON(available)
		return
	}
	ui.Header("Available Tasks")
	for _, t := range available {
		fmt.Printf("  [%s] %-8s %s (%s)\n", t.ID, priorityName(t.Priority), t.Title, t.FilePath)
	}
}

func runSwarmClaim(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("swarm claim", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	priority := fs.String("priority", "normal", "Base priority: backlog, low, normal, high, critical")
	agent := fs.String("agent", "cli", "Agent id recorded on the claim's pheromone trail")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		errors.FatalError(errors.NewInputError("Missing arguments", "claim requires a description and a target",
			"Run: graphcore swarm claim \"<description>\" <target>"), globals.JSON)
	}
	board := buildEphemeralBoard(fs.Arg(0), fs.Arg(1), configPath, *project, parsePriority(*priority), globals)
	available := board.AvailableTasks()
	if len(available) == 0 {
		errors.FatalError(errors.NewNotFoundError("No claimable task", "the decomposition produced no available tasks", "Try a broader target"), globals.JSON)
	}

	pheromones := swarm.New(nil)
	task, err := board.Claim(available[0].ID)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot claim task", err.Error(), "This is a bug", err), globals.JSON)
	}
	if len(task.NodeIDs) > 0 {
		pheromones.Write(*agent, task.NodeIDs[0], "modifying", 1.0, time.Now())
	}

	if globals.JSON {
		_ = output.JSON(task)
		return
	}
	ui.Successf("Claimed %s: %s", task.ID, task.Title)
}

func buildEphemeralBoard(description, target, configPath, project string, priority swarm.Priority, globals GlobalFlags) *swarm.Board {
	ctx := context.Background()
	conn := connectOrExit(ctx, configPath, globals)
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, project, globals)
	reader := graphstore.NewAnalysisStore(conn.Store, projectID)

	affectedNodes, err := reader.ResolveTargetNodes(ctx, target)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot resolve target", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}
	if len(affectedNodes) == 0 {
		errors.FatalError(errors.NewNotFoundError("Target not found", fmt.Sprintf("no node resolves from %q", target), "Run: graphcore trace <node-id> to explore valid ids"), globals.JSON)
	}

	engine := analysis.NewImpactEngine(reader)
	impactMap := make(map[string]swarm.NodeImpact, len(affectedNodes))
	for _, n := range affectedNodes {
		result, err := engine.Analyze(ctx, n.ID, 3)
		if err != nil {
			continue
		}
		files := make(map[string]bool)
		if deps, depErr := reader.TransitiveDependents(ctx, n.ID, 3); depErr == nil {
			for _, d := range deps {
				files[d.Node.FilePath] = true
			}
		}
		impactMap[n.ID] = swarm.NodeImpact{Level: result.Level, AffectedFiles: files}
	}

	decomposition := swarm.Decompose(description, affectedNodes, impactMap, priority)
	return swarm.NewBoard(decomposition.Tasks)
}

func parsePriority(s string) swarm.Priority {
	switch s {
	case "backlog":
		return swarm.PriorityBacklog
	case "low":
		return swarm.PriorityLow
	case "high":
		return swarm.PriorityHigh
	case "critical":
		return swarm.PriorityCritical
	default:
		return swarm.PriorityNormal
	}
}

func priorityName(p swarm.Priority) string {
	switch p {
	case swarm.PriorityBacklog:
		return "backlog"
	case swarm.PriorityLow:
		return "low"
	case swarm.PriorityHigh:
		return "high"
	case swarm.PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}
