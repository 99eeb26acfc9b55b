// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package models defines the shared domain types exchanged between the
// orchestrator, workers, and the sync execution engine: connector
// descriptors, employees, hashed interactions, task status, and the
// combinable sync result.
package models
