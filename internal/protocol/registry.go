// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package protocol

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrUnknownMessageType is returned when an envelope's discriminator has no
// registered decoder. Dispatchers treat this as non-fatal: log and drop.
var ErrUnknownMessageType = errors.New("unknown message type")

// Registry maps wire-name discriminators to typed payload decoders. It is
// populated once at startup and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	decoders map[string]func([]byte) (Message, error)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]func([]byte) (Message, error))}
}

// RegisterMessage adds a decoder for T under its wire name. Registering the
// same name twice keeps the last decoder.
func RegisterMessage[T Message](r *Registry) {
	var zero T
	r.decoders[zero.WireName()] = func(payload []byte) (Message, error) {
		var msg T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &msg); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", zero.WireName(), err)
			}
		}
		return msg, nil
	}
}

// Decode resolves the envelope's discriminator and decodes its payload into
// the registered concrete type.
func (r *Registry) Decode(env Envelope) (Message, error) {
	decode, ok := r.decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	return decode(env.Payload)
}

// Known reports whether a wire name has a registered decoder.
func (r *Registry) Known(wireName string) bool {
	_, ok := r.decoders[wireName]
	return ok
}

// DefaultRegistry returns a registry with the full message catalogue.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterMessage[Ping](r)
	RegisterMessage[Pong](r)
	RegisterMessage[Authenticate](r)
	RegisterMessage[AuthenticateResponse](r)
	RegisterMessage[AddLog](r)
	RegisterMessage[SyncRequest](r)
	RegisterMessage[SyncResponse](r)
	RegisterMessage[SetSecrets](r)
	RegisterMessage[RotateSecrets](r)
	RegisterMessage[ConnectorStatusRequest](r)
	RegisterMessage[ConnectorStatusResponse](r)
	RegisterMessage[WorkerCapabilitiesRequest](r)
	RegisterMessage[WorkerCapabilitiesResponse](r)
	RegisterMessage[InitializeOAuth](r)
	RegisterMessage[OAuthInitializedResponse](r)
	RegisterMessage[HandleOAuthCallback](r)
	RegisterMessage[Ack](r)
	RegisterMessage[ErrorResponse](r)
	return r
}
