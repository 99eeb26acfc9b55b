// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package mediator

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Scope is the unit-of-work container for one mediator call. Handlers may
// stash call-lifetime values and track closers on it; everything tracked is
// released when the call returns, success or failure. A scope is never
// shared across calls, so handlers can assume exclusive access.
type Scope struct {
	mu      sync.Mutex
	values  map[string]any
	closers []io.Closer
	closed  bool
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]any)}
}

// Set stores a call-lifetime value under a key.
func (s *Scope) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get retrieves a value previously stored with Set.
func (s *Scope) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// TrackCloser registers a resource to be closed when the scope closes.
// Closers run in reverse tracking order.
func (s *Scope) TrackCloser(c io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, c)
}

// Close releases every tracked resource. Closing twice is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

type scopeKey struct{}

// contextWithScope attaches the call's scope to its context.
func contextWithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the current call's scope, or nil outside a Send.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}
