// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package protocol

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Message is any wire message. The wire name is the discriminator stored in
// the envelope; it decides which concrete type decodes the payload.
type Message interface {
	WireName() string
}

// Request is a message that expects exactly one Response carrying the same
// correlation id.
type Request interface {
	Message
	isRequest()
}

// Response is the reply to a Request.
type Response interface {
	Message
	isResponse()
}

// Notification is a fire-and-forget message; no reply is expected.
type Notification interface {
	Message
	isNotification()
}

// requestMarker, responseMarker, and notificationMarker are embedded by
// catalogue types to pick their contract.
type requestMarker struct{}

func (requestMarker) isRequest() {}

type responseMarker struct{}

func (responseMarker) isResponse() {}

type notificationMarker struct{}

func (notificationMarker) isNotification() {}

// Envelope frames one message on the wire.
type Envelope struct {
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewCorrelationID returns an opaque token unique per logical call.
func NewCorrelationID() string {
	return uuid.New().String()
}

// Seal wraps a message into an envelope under the given correlation id.
func Seal(correlationID string, msg Message) (Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msg.WireName(), err)
	}
	return Envelope{
		Type:          msg.WireName(),
		CorrelationID: correlationID,
		Payload:       payload,
	}, nil
}

// Encode serializes an envelope to wire bytes.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// DecodeEnvelope parses wire bytes into an envelope without touching the
// payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type discriminator")
	}
	return env, nil
}
