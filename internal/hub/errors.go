// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerNotConnected is returned when a call targets a worker
	// with no live connection.
	ErrWorkerNotConnected = errors.New("hub: worker not connected")

	// ErrCallTimeout is returned when no response arrived within the
	// call timeout. The call is not retried.
	ErrCallTimeout = errors.New("hub: call timed out")

	// ErrUnauthorized is returned when connect-time authentication
	// fails. No partial session is created.
	ErrUnauthorized = errors.New("hub: unauthorized")

	// ErrConnectionClosed is returned to in-flight calls when the
	// underlying connection drops. Calls are never replayed.
	ErrConnectionClosed = errors.New("hub: connection closed")
)

// CallError is a failure the remote end reported for one call.
type CallError struct {
	Kind    string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("hub: remote call failed (%s): %s", e.Kind, e.Message)
}
