// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package mediator

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/syncfleet/internal/logging"
)

// Request is any dispatchable request. The wire name doubles as the
// registry key, so exactly one handler serves each concrete type.
type Request interface {
	WireName() string
}

// ErrNoHandler is returned when a request type has no registered handler.
var ErrNoHandler = errors.New("no handler registered")

// PreProcessor runs before the handler for side effects such as validation
// or authorization. An error short-circuits the call before the handler.
type PreProcessor func(ctx context.Context, req Request) error

// Next invokes the remainder of the behavior chain.
type Next func(ctx context.Context, req Request) (any, error)

// Behavior wraps handler invocation, middleware style. The first behavior
// registered is outermost.
type Behavior func(next Next) Next

// Mediator resolves requests to handlers. Registration happens at startup;
// Send is safe for concurrent use afterwards.
type Mediator struct {
	handlers  map[string]func(ctx context.Context, req Request) (any, error)
	pres      []PreProcessor
	behaviors []Behavior
}

// New returns an empty mediator.
func New() *Mediator {
	return &Mediator{handlers: make(map[string]func(context.Context, Request) (any, error))}
}

// Register binds a typed handler to the concrete request type TReq.
// Registering a second handler for the same type replaces the first.
func Register[TReq Request, TResp any](m *Mediator, handler func(ctx context.Context, req TReq) (TResp, error)) {
	var zero TReq
	m.handlers[zero.WireName()] = func(ctx context.Context, req Request) (any, error) {
		typed, ok := req.(TReq)
		if !ok {
			return nil, fmt.Errorf("handler for %s received %T", zero.WireName(), req)
		}
		return handler(ctx, typed)
	}
}

// RegisterPreProcessor adds a pre-processor. Pre-processors run in reverse
// registration order.
func (m *Mediator) RegisterPreProcessor(p PreProcessor) {
	m.pres = append(m.pres, p)
}

// Use adds a behavior wrapping handler invocation. The first behavior added
// is outermost.
func (m *Mediator) Use(b Behavior) {
	m.behaviors = append(m.behaviors, b)
}

// Send dispatches a request to its handler inside a fresh scope. Handler
// errors propagate to the caller unmodified unless a behavior recovers
// them.
func (m *Mediator) Send(ctx context.Context, req Request) (any, error) {
	handler, ok := m.handlers[req.WireName()]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoHandler, req.WireName())
	}

	scope := NewScope()
	ctx = contextWithScope(ctx, scope)
	defer func() {
		if err := scope.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("request", req.WireName()).Msg("scope close failed")
		}
	}()

	for i := len(m.pres) - 1; i >= 0; i-- {
		if err := m.pres[i](ctx, req); err != nil {
			return nil, err
		}
	}

	next := Next(func(ctx context.Context, req Request) (any, error) {
		return handler(ctx, req)
	})
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		next = m.behaviors[i](next)
	}

	return next(ctx, req)
}

// Send dispatches a request and asserts the response type.
func Send[TResp any](ctx context.Context, m *Mediator, req Request) (TResp, error) {
	var zero TResp
	resp, err := m.Send(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(TResp)
	if !ok {
		return zero, fmt.Errorf("handler for %s returned %T, want %T", req.WireName(), resp, zero)
	}
	return typed, nil
}
