// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package models

import "github.com/google/uuid"

// Connector identifies one configured data-source integration instance.
// The property bag carries provider-specific settings (tenant ids, API
// endpoints) that the core never interprets.
type Connector struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Property returns a named property or the given default when absent.
func (c Connector) Property(key, def string) string {
	if v, ok := c.Properties[key]; ok {
		return v
	}
	return def
}
