// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package oauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/secrets"
)

var (
	// ErrUnknownProvider means no Provider is registered for the
	// connector type.
	ErrUnknownProvider = errors.New("oauth: unknown provider")

	// ErrUnknownState means the callback state matches no pending flow.
	// Expired flows report the same error; the caller restarts the flow
	// either way.
	ErrUnknownState = errors.New("oauth: unknown or expired state")
)

// pendingTTL bounds how long a started flow waits for its callback.
const pendingTTL = 15 * time.Minute

type pendingFlow struct {
	connector   models.Connector
	verifier    string
	callbackURI string
	expiresAt   time.Time
}

// Manager drives authorization flows for all OAuth-capable connector
// types on one worker. Completed flows land tokens in the secret store
// under the connector's composed keys.
type Manager struct {
	store     secrets.Store
	mu        sync.Mutex
	providers map[string]Provider
	pending   map[string]pendingFlow
}

// NewManager builds a manager writing tokens to store.
func NewManager(store secrets.Store) *Manager {
	return &Manager{
		store:     store,
		providers: make(map[string]Provider),
		pending:   make(map[string]pendingFlow),
	}
}

// RegisterProvider binds a connector type to its Provider. Registering
// the same type twice replaces the earlier provider.
func (m *Manager) RegisterProvider(connectorType string, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[connectorType] = p
}

// InitializeFlow starts a flow for the connector and returns the
// authorization URL plus the state token binding the callback.
func (m *Manager) InitializeFlow(_ context.Context, connector models.Connector, callbackURI string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	provider, ok := m.providers[connector.Type]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownProvider, connector.Type)
	}

	pkce, err := GeneratePKCE()
	if err != nil {
		return "", "", err
	}
	state, err := generateState()
	if err != nil {
		return "", "", err
	}

	m.pruneLocked()
	m.pending[state] = pendingFlow{
		connector:   connector,
		verifier:    pkce.CodeVerifier,
		callbackURI: callbackURI,
		expiresAt:   time.Now().Add(pendingTTL),
	}

	logging.WithComponent("oauth").Info().
		Str("connector_id", connector.ID.String()).
		Str("connector_type", connector.Type).
		Msg("authorization flow started")

	return provider.AuthorizationURL(state, pkce.CodeChallenge, callbackURI), state, nil
}

// CompleteFlow finishes the flow bound to state: exchanges the code and
// stores the resulting tokens. The state is consumed on every attempt,
// success or failure, so a code can never be replayed.
func (m *Manager) CompleteFlow(ctx context.Context, code, state string) error {
	m.mu.Lock()
	flow, ok := m.pending[state]
	delete(m.pending, state)
	var provider Provider
	if ok {
		provider = m.providers[flow.connector.Type]
	}
	m.mu.Unlock()

	if !ok || time.Now().After(flow.expiresAt) {
		return ErrUnknownState
	}
	if provider == nil {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, flow.connector.Type)
	}

	token, err := provider.ExchangeCode(ctx, code, flow.verifier, flow.callbackURI)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	tokenKey := secrets.TokenKey(flow.connector.Type, flow.connector.ID)
	if err := m.store.SetSecret(ctx, tokenKey, token.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if token.RefreshToken != "" {
		refreshKey := secrets.RefreshTokenKey(flow.connector.Type, flow.connector.ID)
		if err := m.store.SetSecret(ctx, refreshKey, token.RefreshToken); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
	}

	logging.WithComponent("oauth").Info().
		Str("connector_id", flow.connector.ID.String()).
		Str("connector_type", flow.connector.Type).
		Msg("authorization flow completed")

	return nil
}

// pruneLocked drops expired pending flows. Callers hold m.mu.
func (m *Manager) pruneLocked() {
	now := time.Now()
	for state, flow := range m.pending {
		if now.After(flow.expiresAt) {
			delete(m.pending, state)
		}
	}
}
