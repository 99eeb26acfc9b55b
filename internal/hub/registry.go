// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"sort"
	"sync"
)

// WorkerConnection binds a worker's logical name to its currently live
// connection id. Rebuilt from new connects on restart, never persisted.
type WorkerConnection struct {
	Name         string
	ConnectionID string
}

// Registry maps worker names to their live connections. At most one
// connection per name; a reconnect replaces the previous entry.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*wsConn
}

// NewRegistry builds an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*wsConn)}
}

// Put records the live connection for a worker, replacing any prior
// entry. The replaced connection, if any, is returned so the caller can
// fail its in-flight calls; it is not forcibly closed.
func (r *Registry) Put(name string, conn *wsConn) *wsConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[name]
	r.conns[name] = conn
	return prev
}

// Remove deletes the entry for a worker only if it still points at the
// given connection id. A stale disconnect must not remove a fresh
// reconnect's entry.
func (r *Registry) Remove(name, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[name]
	if !ok || conn.id != connectionID {
		return false
	}
	delete(r.conns, name)
	return true
}

// Get returns the live connection for a worker.
func (r *Registry) Get(name string) (*wsConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[name]
	return conn, ok
}

// Workers lists the connected workers, sorted by name.
func (r *Registry) Workers() []WorkerConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workers := make([]WorkerConnection, 0, len(r.conns))
	for name, conn := range r.conns {
		workers = append(workers, WorkerConnection{Name: name, ConnectionID: conn.id})
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })
	return workers
}
