// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet
//
// Package hub implements the persistent duplex connection between the
// orchestrator and its workers. Each worker dials the orchestrator once,
// authenticates with a name and secret, and keeps the connection open;
// the orchestrator addresses a worker by name and issues correlated
// request/response calls or fire-and-forget notifications over that
// single connection.
//
// The server side owns the connection registry (one live connection per
// worker name, replace on reconnect); the client side owns the backoff
// reconnect loop. Both sides dispatch inbound requests through an
// explicit wire-name handler table.
package hub
