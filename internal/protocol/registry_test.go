// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/models"
)

func TestSealAndDecode_RoundTrip(t *testing.T) {
	reg := DefaultRegistry()

	connectorID := uuid.New()
	req := SyncRequest{
		Connector: models.Connector{
			ID:         connectorID,
			Type:       "google-mail",
			Properties: map[string]string{"domain": "example.com"},
		},
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	corrID := NewCorrelationID()
	env, err := Seal(corrID, req)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if env.Type != WireSyncRequest {
		t.Errorf("envelope type = %q, want %q", env.Type, WireSyncRequest)
	}
	if env.CorrelationID != corrID {
		t.Errorf("correlation id = %q, want %q", env.CorrelationID, corrID)
	}

	data, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decodedEnv, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}

	msg, err := reg.Decode(decodedEnv)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, ok := msg.(SyncRequest)
	if !ok {
		t.Fatalf("decoded type = %T, want SyncRequest", msg)
	}
	if got.Connector.ID != connectorID {
		t.Errorf("connector id = %v, want %v", got.Connector.ID, connectorID)
	}
	if got.Connector.Property("domain", "") != "example.com" {
		t.Errorf("connector property lost in round trip")
	}
	if !got.Start.Equal(req.Start) || !got.End.Equal(req.End) {
		t.Errorf("window = [%v, %v), want [%v, %v)", got.Start, got.End, req.Start, req.End)
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Decode(Envelope{Type: "no_such_message", CorrelationID: "x"})
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("err = %v, want ErrUnknownMessageType", err)
	}
}

func TestDecodeEnvelope_MissingType(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"correlation_id":"x"}`)); err == nil {
		t.Error("expected error for envelope without type")
	}
}

func TestMessageContracts(t *testing.T) {
	// Requests expect a response, notifications do not. The contract is
	// carried by the interface a message implements.
	var _ Request = SyncRequest{}
	var _ Response = SyncResponse{}
	var _ Notification = AddLog{}
	var _ Request = Ping{}
	var _ Response = Pong{}
	var _ Request = SetSecrets{}
	var _ Response = Ack{}
	var _ Response = ErrorResponse{}

	if _, ok := any(AddLog{}).(Request); ok {
		t.Error("AddLog must not be a Request")
	}
}

func TestRegistry_EmptyPayload(t *testing.T) {
	reg := DefaultRegistry()

	msg, err := reg.Decode(Envelope{Type: WireWorkerCapabilitiesRequest, CorrelationID: "c"})
	if err != nil {
		t.Fatalf("Decode with empty payload: %v", err)
	}
	if _, ok := msg.(WorkerCapabilitiesRequest); !ok {
		t.Errorf("decoded type = %T", msg)
	}
}
