// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"context"
	"fmt"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/protocol"
)

// HandlerFunc processes one decoded inbound message. For requests the
// returned message is sent back under the same correlation id; for
// notifications it is ignored.
type HandlerFunc func(ctx context.Context, msg protocol.Message) (protocol.Message, error)

// Dispatcher routes inbound envelopes to handlers keyed by wire name.
// Every failure mode is non-fatal to the connection loop: an envelope of
// unknown type is logged and dropped, a missing handler fails the call
// (request) or drops the message (notification), and handler panics are
// recovered.
type Dispatcher struct {
	codec    *protocol.Registry
	handlers map[string]HandlerFunc
}

// NewDispatcher builds a dispatcher over the given wire codec.
func NewDispatcher(codec *protocol.Registry) *Dispatcher {
	return &Dispatcher{codec: codec, handlers: make(map[string]HandlerFunc)}
}

// Handle registers the handler for one wire name. Registration happens
// at startup; the table is read-only afterwards.
func (d *Dispatcher) Handle(wireName string, fn HandlerFunc) {
	d.handlers[wireName] = fn
}

// Dispatch decodes and handles one inbound envelope. The returned
// envelope, if any, is the reply to write back. The envelope's
// correlation id rides on the handler context so log lines across the
// call share it.
func (d *Dispatcher) Dispatch(ctx context.Context, env protocol.Envelope) *protocol.Envelope {
	if env.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, env.CorrelationID)
	}

	msg, err := d.codec.Decode(env)
	if err != nil {
		// An envelope that cannot be classified gets no reply; a caller
		// expecting one observes the timeout.
		metrics.HubDispatchErrors.WithLabelValues("unknown_type").Inc()
		logging.WithComponent("hub").Warn().Err(err).
			Str("message", env.Type).
			Msg("dropping message of unknown type")
		return nil
	}

	_, isRequest := msg.(protocol.Request)

	handler, ok := d.handlers[env.Type]
	if !ok {
		metrics.HubDispatchErrors.WithLabelValues("no_handler").Inc()
		logging.WithComponent("hub").Warn().
			Str("message", env.Type).
			Msg("no handler registered, dropping message")
		if isRequest {
			return d.failure(env, "no_handler", fmt.Sprintf("no handler for %q", env.Type))
		}
		return nil
	}

	reply, err := d.invoke(ctx, handler, msg)
	if err != nil {
		metrics.HubDispatchErrors.WithLabelValues("handler_error").Inc()
		logging.WithComponent("hub").Error().Err(err).
			Str("message", env.Type).
			Msg("handler failed")
		if isRequest {
			return d.failure(env, "handler_error", err.Error())
		}
		return nil
	}

	if !isRequest || reply == nil {
		return nil
	}
	sealed, err := protocol.Seal(env.CorrelationID, reply)
	if err != nil {
		logging.WithComponent("hub").Error().Err(err).
			Str("message", env.Type).
			Msg("failed to seal reply")
		return d.failure(env, "handler_error", "reply serialization failed")
	}
	return &sealed
}

// invoke runs a handler with panic recovery so a broken handler cannot
// take down the read loop.
func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, msg protocol.Message) (reply protocol.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}

func (d *Dispatcher) failure(env protocol.Envelope, kind, message string) *protocol.Envelope {
	sealed, err := protocol.Seal(env.CorrelationID, protocol.ErrorResponse{Kind: kind, Message: message})
	if err != nil {
		return nil
	}
	return &sealed
}
