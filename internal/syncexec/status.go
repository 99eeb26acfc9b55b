// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/models"
)

// StatusRegistry maps connector ids to their live task status. One registry
// serves the whole process; a single mutex keeps the claim check-and-set
// atomic across all connectors. The lock is held only for map operations,
// never across an awaited call.
type StatusRegistry struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]models.TaskStatus
}

// NewStatusRegistry returns an empty registry.
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{statuses: make(map[uuid.UUID]models.TaskStatus)}
}

// TryClaim atomically sets the initial status for a connector if no sync is
// currently in progress. It returns false when the connector is already
// claimed; claims for different connectors never block each other beyond
// the map operation itself.
func (r *StatusRegistry) TryClaim(connectorID uuid.UUID, initial models.TaskStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.statuses[connectorID].IsEmpty() {
		return false
	}
	r.statuses[connectorID] = initial
	return true
}

// Update replaces the status for a claimed connector. Progress callbacks
// call this during fan-out.
func (r *StatusRegistry) Update(connectorID uuid.UUID, status models.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[connectorID] = status
}

// Release resets the connector to the empty status. This is the unlock
// signal for the next job on that connector and must run on every outcome.
func (r *StatusRegistry) Release(connectorID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.statuses, connectorID)
}

// Get returns the current status for a connector; the empty status means no
// sync is running.
func (r *StatusRegistry) Get(connectorID uuid.UUID) models.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[connectorID]
}
