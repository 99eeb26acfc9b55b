// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package metrics provides Prometheus instrumentation for the hub
// transport, the sync execution engine, the batcher, and the cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hub transport metrics
	WorkersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_workers_connected",
			Help: "Current number of authenticated worker connections",
		},
	)

	HubCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_calls_total",
			Help: "Total number of routed hub calls",
		},
		[]string{"message", "status"}, // status: ok, error, timeout, not_connected
	)

	HubCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_call_duration_seconds",
			Help:    "Duration of routed hub calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"message"},
	)

	HubDispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_dispatch_errors_total",
			Help: "Total inbound messages dropped or failed during dispatch",
		},
		[]string{"reason"}, // unknown_type, no_handler, handler_error
	)

	// Sync engine metrics
	SyncJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_jobs_total",
			Help: "Total sync jobs by outcome",
		},
		[]string{"outcome"}, // completed, failed, canceled, rejected
	)

	SyncTaskFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_task_failures_total",
			Help: "Total failed per-item sync tasks",
		},
	)

	SyncInteractions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_interactions_total",
			Help: "Total interactions produced by sync jobs",
		},
	)

	// Batcher metrics
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_records",
			Help:    "Number of records per emitted batch",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	BatchesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batches_emitted_total",
			Help: "Total batches emitted to the upstream sink",
		},
	)

	// Interaction cache metrics
	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_cache_ops_total",
			Help: "Total interaction cache operations",
		},
		[]string{"op", "status"}, // op: push, pull; status: ok, error
	)
)
