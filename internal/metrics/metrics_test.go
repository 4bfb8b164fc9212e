// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package metrics

import "testing"

func TestGet_ReturnsSameInstanceAcrossCalls(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Fatal("Get() returned distinct instances; sync.Once should build exactly one")
	}
}

func TestGet_CollectorsAcceptUpdates(t *testing.T) {
	m := Get()
	m.NodesImported.Add(3)
	m.EdgesImported.Add(1)
	m.PheromoneWrites.WithLabelValues("modifying").Inc()
	m.TasksDecomposed.WithLabelValues("high").Inc()
}
