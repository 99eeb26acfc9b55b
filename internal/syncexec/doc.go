// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package syncexec is the per-job synchronization execution engine a worker
// runs when it receives a sync request: the claim-if-empty concurrency
// guard keyed by connector id, the job-scoped memoization context, the
// bounded-parallelism fan-out over sub-entities, and result aggregation.
//
// The status registry is the single source of truth for "is a sync running
// for this connector": a job claims its connector by compare-and-set on an
// empty status and releases it in a deferred block, so the unlock happens
// on every outcome.
package syncexec
