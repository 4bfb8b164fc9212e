// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes graphcore's Prometheus instrumentation: counters
// and histograms for the parse pipeline, the job manager, and the swarm
// coordination substrate. A single process-wide registry is built lazily via
// sync.Once, the same pattern the teacher's pkg/ingestion used for its own
// metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/histogram graphcore records.
type Metrics struct {
	FilesDiscovered prometheus.Counter
	FilesReparsed   prometheus.Counter
	FilesDeleted    prometheus.Counter

	ChunksDispatched prometheus.Counter
	ChunksCompleted  prometheus.Counter
	ChunksErrored    prometheus.Counter

	NodesImported prometheus.Counter
	EdgesImported prometheus.Counter

	JobManagerSize    prometheus.Gauge
	JobManagerEvicted prometheus.Counter

	PheromoneWrites *prometheus.CounterVec

	TasksDecomposed *prometheus.CounterVec

	ParseDuration prometheus.Histogram
}

var (
	once     sync.Once
	instance *Metrics
)

// buckets mirrors the teacher's own second-scale histogram buckets for
// pipeline stage durations.
var buckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Get returns the process-wide Metrics, building and registering it with
// the default Prometheus registry on first call.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			FilesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_files_discovered_total", Help: "Source files discovered during change detection.",
			}),
			FilesReparsed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_files_reparsed_total", Help: "Source files classified for reparsing.",
			}),
			FilesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_files_deleted_total", Help: "Source files whose subgraphs were removed.",
			}),
			ChunksDispatched: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_chunks_dispatched_total", Help: "Chunks handed to a worker.",
			}),
			ChunksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_chunks_completed_total", Help: "Chunks whose onComplete callback settled.",
			}),
			ChunksErrored: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_chunks_errored_total", Help: "Chunks that returned an error.",
			}),
			NodesImported: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_nodes_imported_total", Help: "CodeNodes imported into the graph store.",
			}),
			EdgesImported: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_edges_imported_total", Help: "CodeEdges imported into the graph store.",
			}),
			JobManagerSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "graphcore_job_manager_size", Help: "Tracked jobs currently held by the job manager.",
			}),
			JobManagerEvicted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "graphcore_job_manager_evicted_total", Help: "Terminal jobs evicted by the sweeper.",
			}),
			PheromoneWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "graphcore_pheromone_writes_total", Help: "Pheromone deposits, by type.",
			}, []string{"type"}),
			TasksDecomposed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "graphcore_tasks_decomposed_total", Help: "Tasks produced by decompose, by priority.",
			}, []string{"priority"}),
			ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name: "graphcore_parse_duration_seconds", Help: "Duration of a full parse run.", Buckets: buckets,
			}),
		}
		prometheus.MustRegister(
			instance.FilesDiscovered, instance.FilesReparsed, instance.FilesDeleted,
			instance.ChunksDispatched, instance.ChunksCompleted, instance.ChunksErrored,
			instance.NodesImported, instance.EdgesImported,
			instance.JobManagerSize, instance.JobManagerEvicted,
			instance.PheromoneWrites, instance.TasksDecomposed,
			instance.ParseDuration,
		)
	})
	return instance
}
