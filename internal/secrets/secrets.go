// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package secrets is the boundary to whatever secret store a deployment
// uses. The core only composes opaque string keys and never assumes a
// storage technology; the in-memory store backs tests and single-node
// setups.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New("secrets: not found")

// Store reads and writes named secrets.
type Store interface {
	GetSecret(ctx context.Context, key string) (string, error)
	SetSecret(ctx context.Context, key, value string) error
	RemoveSecret(ctx context.Context, key string) error
}

// Key composes the storage key for one named secret of a connector,
// e.g. "google-token-3f2a...". The store never parses these; they are
// opaque.
func Key(provider, name string, connectorID uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s", provider, name, connectorID)
}

// TokenKey composes the storage key for a connector's provider token.
func TokenKey(provider string, connectorID uuid.UUID) string {
	return Key(provider, "token", connectorID)
}

// RefreshTokenKey composes the storage key for a connector's refresh
// token.
func RefreshTokenKey(provider string, connectorID uuid.UUID) string {
	return Key(provider, "refresh-token", connectorID)
}

// MemoryStore is a process-lifetime Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore builds an empty in-memory secret store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) GetSecret(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

func (s *MemoryStore) SetSecret(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) RemoveSecret(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
