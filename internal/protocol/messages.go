// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package protocol

import (
	"time"

	"github.com/tomtom215/syncfleet/internal/models"
)

// Wire names for the message catalogue. These are the stable discriminators
// stored in envelopes; renaming one is a protocol break.
const (
	WirePing                      = "ping"
	WirePong                      = "pong"
	WireAuthenticate              = "authenticate"
	WireAuthenticateResponse      = "authenticate_response"
	WireAddLog                    = "add_log"
	WireSyncRequest               = "sync_request"
	WireSyncResponse              = "sync_response"
	WireSetSecrets                = "set_secrets"
	WireRotateSecrets             = "rotate_secrets"
	WireConnectorStatusRequest    = "connector_status_request"
	WireConnectorStatusResponse   = "connector_status_response"
	WireWorkerCapabilitiesRequest = "worker_capabilities_request"
	WireWorkerCapabilitiesResp    = "worker_capabilities_response"
	WireInitializeOAuth           = "initialize_oauth"
	WireOAuthInitialized          = "oauth_initialized"
	WireHandleOAuthCallback       = "handle_oauth_callback"
	WireAck                       = "ack"
	WireError                     = "error"
)

// Ping checks connection liveness end to end.
type Ping struct {
	requestMarker
	SentAt time.Time `json:"sent_at"`
}

func (Ping) WireName() string { return WirePing }

// Pong answers a Ping.
type Pong struct {
	responseMarker
	SentAt     time.Time `json:"sent_at"`
	ReceivedAt time.Time `json:"received_at"`
}

func (Pong) WireName() string { return WirePong }

// Authenticate is the first frame a worker sends after connecting. The
// secret is presented once; on failure the connection is closed with no
// partial session.
type Authenticate struct {
	requestMarker
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

func (Authenticate) WireName() string { return WireAuthenticate }

// AuthenticateResponse reports the outcome of an Authenticate.
type AuthenticateResponse struct {
	responseMarker
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

func (AuthenticateResponse) WireName() string { return WireAuthenticateResponse }

// AddLog forwards one worker log line to the orchestrator.
type AddLog struct {
	notificationMarker
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (AddLog) WireName() string { return WireAddLog }

// SyncRequest asks a worker to synchronize one connector for [Start, End).
type SyncRequest struct {
	requestMarker
	Connector models.Connector `json:"connector"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
}

func (SyncRequest) WireName() string { return WireSyncRequest }

// SyncResponse carries the aggregated result of a SyncRequest. SuccessRate
// is serialized explicitly so the orchestrator never recomputes it.
type SyncResponse struct {
	responseMarker
	Result      models.SyncResult `json:"result"`
	SuccessRate float64           `json:"success_rate"`
	Canceled    bool              `json:"canceled,omitempty"`
}

func (SyncResponse) WireName() string { return WireSyncResponse }

// SetSecrets stores secret material on the worker's secret store.
type SetSecrets struct {
	requestMarker
	Connector models.Connector  `json:"connector"`
	Secrets   map[string]string `json:"secrets"`
}

func (SetSecrets) WireName() string { return WireSetSecrets }

// RotateSecrets asks the worker to re-derive stored secret material.
type RotateSecrets struct {
	requestMarker
	Connector models.Connector `json:"connector"`
	Keys      []string         `json:"keys,omitempty"`
}

func (RotateSecrets) WireName() string { return WireRotateSecrets }

// ConnectorStatusRequest queries the live task status for one connector.
type ConnectorStatusRequest struct {
	requestMarker
	Connector models.Connector `json:"connector"`
}

func (ConnectorStatusRequest) WireName() string { return WireConnectorStatusRequest }

// ConnectorStatusResponse returns the current task status; an empty status
// means no sync is running for the connector.
type ConnectorStatusResponse struct {
	responseMarker
	Status models.TaskStatus `json:"status"`
}

func (ConnectorStatusResponse) WireName() string { return WireConnectorStatusResponse }

// WorkerCapabilitiesRequest asks which connector types a worker supports.
type WorkerCapabilitiesRequest struct {
	requestMarker
}

func (WorkerCapabilitiesRequest) WireName() string { return WireWorkerCapabilitiesRequest }

// WorkerCapabilitiesResponse lists the connector types a worker can run.
type WorkerCapabilitiesResponse struct {
	responseMarker
	ConnectorTypes []string `json:"connector_types"`
}

func (WorkerCapabilitiesResponse) WireName() string { return WireWorkerCapabilitiesResp }

// InitializeOAuth starts an OAuth flow for a connector. The worker answers
// with an OAuthInitializedResponse carrying the provider authorization URL.
type InitializeOAuth struct {
	requestMarker
	Connector   models.Connector `json:"connector"`
	CallbackURI string           `json:"callback_uri"`
}

func (InitializeOAuth) WireName() string { return WireInitializeOAuth }

// OAuthInitializedResponse returns the authorization URL the user must
// visit to grant access, plus the state token binding the callback.
type OAuthInitializedResponse struct {
	responseMarker
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

func (OAuthInitializedResponse) WireName() string { return WireOAuthInitialized }

// HandleOAuthCallback completes an OAuth flow with the provider's callback
// parameters.
type HandleOAuthCallback struct {
	requestMarker
	Connector models.Connector `json:"connector"`
	Code      string           `json:"code"`
	State     string           `json:"state"`
}

func (HandleOAuthCallback) WireName() string { return WireHandleOAuthCallback }

// Ack is the generic success response for requests that return no data.
type Ack struct {
	responseMarker
	Message string `json:"message,omitempty"`
}

func (Ack) WireName() string { return WireAck }

// ErrorResponse fails an RPC call without crashing the connection loop.
type ErrorResponse struct {
	responseMarker
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (ErrorResponse) WireName() string { return WireError }
