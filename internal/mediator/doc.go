// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package mediator implements command/query dispatch for the worker: one
// registered handler per concrete request type, resolved through an
// explicit registry keyed by the request's wire name.
//
// A Send call runs registered pre-processors (in reverse registration
// order, short-circuiting on error), then a behavior chain wrapping the
// handler, with the handler executing inside a fresh per-call Scope. The
// scope is closed when the call returns, releasing any resources the
// handler tracked on it.
package mediator
