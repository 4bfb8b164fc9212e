// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import "github.com/kraklabs/graphcore/internal/jobs"

// jobManager tracks every parse run this process starts: `index` creates
// and settles one job per invocation, `watch` creates one per reparse
// trigger. It is process-lifetime only, like the rest of the swarm/job
// state in this CLI.
var jobManager = jobs.New(0, 0)
