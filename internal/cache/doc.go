// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet
//
// Package cache carries interactions across sync window boundaries, for
// example a meeting spanning midnight or a run resumed after partial
// failure. Records are bucketed by UTC calendar day; Pull consumes a
// bucket so a second Pull for the same day returns nothing.
//
// Two interchangeable variants exist, selected per connector: a
// volatile in-memory store and a durable Badger-backed store that
// persists one AES-256-GCM encrypted blob per day.
package cache
