// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap handles graphcore's startup wiring against a live Neo4j
// instance.
//
// Connect opens a Store backed by the configured Neo4j database, verifies
// connectivity, and ensures the schema (constraints + indexes) the parse
// coordinator and analysis engines rely on:
//
//	conn, err := bootstrap.Connect(ctx, cfg.Store, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	projects, err := bootstrap.ListProjects(ctx, conn)
package bootstrap
