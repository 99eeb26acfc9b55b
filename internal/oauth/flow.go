// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package oauth runs the worker side of connector authorization. The
// core only drives the flow; how a provider builds its authorization
// URL and exchanges codes is behind the Provider interface.
package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Token is the provider's grant after a completed flow.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PKCEChallenge is an RFC 7636 verifier and challenge pair.
type PKCEChallenge struct {
	CodeVerifier  string
	CodeChallenge string
}

// GeneratePKCE returns a fresh verifier and its S256 challenge. The
// verifier is 43 characters, the RFC 7636 minimum.
func GeneratePKCE() (PKCEChallenge, error) {
	verifierBytes := make([]byte, 32)
	if _, err := rand.Read(verifierBytes); err != nil {
		return PKCEChallenge{}, fmt.Errorf("generate verifier: %w", err)
	}

	codeVerifier := base64.RawURLEncoding.EncodeToString(verifierBytes)
	hash := sha256.Sum256([]byte(codeVerifier))

	return PKCEChallenge{
		CodeVerifier:  codeVerifier,
		CodeChallenge: base64.RawURLEncoding.EncodeToString(hash[:]),
	}, nil
}

// Provider is one OAuth-capable upstream. Implementations own endpoint
// URLs, client credentials, and token transport.
type Provider interface {
	// AuthorizationURL builds the URL the user must visit. The state and
	// PKCE challenge are supplied by the flow manager.
	AuthorizationURL(state, codeChallenge, callbackURI string) string

	// ExchangeCode trades the callback code for tokens.
	ExchangeCode(ctx context.Context, code, codeVerifier, callbackURI string) (Token, error)
}

// generateState returns a random CSRF-binding token.
func generateState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
