// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Command graphcore indexes a source tree into a property graph and answers
// blast-radius, dead-code, and traversal questions over it.
//
// Usage:
//
//	graphcore init                      Create a .graphcore/config.yaml
//	graphcore index [path]               Parse and import a project
//	graphcore status                     List indexed projects
//	graphcore impact <target>            Blast-radius analysis
//	graphcore deadcode                   Dead-code scan
//	graphcore trace <node-id>            Bounded graph traversal
//	graphcore ask <node-id> "<question>" Ask the narrative assistant about a target
//	graphcore swarm sense|claim|decompose
//	graphcore watch [path]               Incremental re-index daemon
//	graphcore reset <project-id>         Clear a project's graph
//
//	graphcore -version                   Print version and exit
//	graphcore -config <path>             Use an alternate config file
package main

import (
	"flag"
	"fmt"
	"os"
)

// version/commit/date are set via -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GlobalFlags carries the CLI flags every subcommand may consult, threaded
// explicitly rather than read from package globals so runXxx functions stay
// testable in isolation.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	Verbose int
	NoColor bool
}

func main() {
	showVersion := flag.Bool("version", false, "Print version information and exit")
	configPath := flag.String("config", "", "Path to graphcore config file (default: ./.graphcore/config.yaml)")
	jsonOutput := flag.Bool("json", false, "Output machine-readable JSON where supported")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	noColor := flag.Bool("no-color", false, "Disable colored output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `graphcore indexes a source tree into a property graph and answers
blast-radius, dead-code, and traversal questions over it.

Usage:
  graphcore <command> [arguments]

Commands:
  init          Create a .graphcore/config.yaml in the current directory
  index         Parse and import a project into the graph store
  status        List indexed projects and their entity counts
  impact        Blast-radius analysis for a node or file
  deadcode      Scan for unreferenced exports and uncalled methods
  trace         Bounded traversal from a node
  ask           Ask the narrative assistant a question about a target
  swarm         Coordination substrate: sense, claim, decompose
  watch         Run a long-lived incremental re-index daemon
  reset         Clear a project's graph data (destructive!)

Global options:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("graphcore %s (commit %s, built %s)\n", version, commit, date)
		os.Exit(0)
	}

	globals := GlobalFlags{JSON: *jsonOutput, Quiet: *quiet, NoColor: *noColor}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		runInit(rest)
	case "index":
		runIndex(rest, *configPath, globals)
	case "status":
		runStatus(rest, *configPath, globals)
	case "impact":
		runImpact(rest, *configPath, globals)
	case "deadcode":
		runDeadcode(rest, *configPath, globals)
	case "trace":
		runTrace(rest, *configPath, globals)
	case "ask":
		runAsk(rest, *configPath, globals)
	case "swarm":
		runSwarm(rest, *configPath, globals)
	case "watch":
		runWatch(rest, *configPath, globals)
	case "reset":
		runReset(rest, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		flag.Usage()
		os.Exit(1)
	}
}
