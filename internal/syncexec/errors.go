// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SyncInProgressError rejects a job because another sync is already running
// for the same connector. It is user-visible and never retried by the core.
type SyncInProgressError struct {
	ConnectorID uuid.UUID
}

func (e *SyncInProgressError) Error() string {
	return fmt.Sprintf("sync already in progress for connector %s", e.ConnectorID)
}

// IsSyncInProgress reports whether err is a concurrency-conflict rejection.
func IsSyncInProgress(err error) bool {
	var target *SyncInProgressError
	return errors.As(err, &target)
}
