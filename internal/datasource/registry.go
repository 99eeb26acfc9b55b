// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package datasource resolves connector types to their concrete
// DataSource constructors. The adapters themselves (Google, Microsoft,
// Slack, Jira, Excel) live outside the core and register here at
// startup; the sync engine only ever sees the capability interface.
package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/secrets"
	"github.com/tomtom215/syncfleet/internal/syncexec"
)

// FactoryFunc builds a DataSource for one connector. The secret store
// carries whatever credential material the adapter needs.
type FactoryFunc func(ctx context.Context, connector models.Connector, store secrets.Store) (syncexec.DataSource, error)

// Registry maps connector types to adapter constructors. It implements
// syncexec.DataSourceFactory.
type Registry struct {
	mu        sync.RWMutex
	store     secrets.Store
	factories map[string]FactoryFunc
}

// NewRegistry builds an empty registry backed by the given secret store.
func NewRegistry(store secrets.Store) *Registry {
	return &Registry{store: store, factories: make(map[string]FactoryFunc)}
}

// Register binds a connector type to its constructor. Registering the
// same type twice replaces the earlier binding.
func (r *Registry) Register(connectorType string, factory FactoryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[connectorType] = factory
}

// Create builds the data source serving one connector.
func (r *Registry) Create(ctx context.Context, connector models.Connector) (syncexec.DataSource, error) {
	r.mu.RLock()
	factory, ok := r.factories[connector.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no data source registered for connector type %q", connector.Type)
	}
	return factory(ctx, connector, r.store)
}

// Types lists the registered connector types, sorted. Used for worker
// capability reporting.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
