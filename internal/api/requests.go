// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package api

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SyncTriggerRequest is the body of POST /api/v1/sync.
type SyncTriggerRequest struct {
	Worker        string            `json:"worker" validate:"required"`
	ConnectorID   string            `json:"connector_id" validate:"required,uuid"`
	ConnectorType string            `json:"connector_type" validate:"required"`
	Properties    map[string]string `json:"properties,omitempty"`
	Start         time.Time         `json:"start" validate:"required"`
	End           time.Time         `json:"end" validate:"required"`
}

// SetSecretsRequest is the body of POST /api/v1/workers/{name}/secrets.
type SetSecretsRequest struct {
	ConnectorID   string            `json:"connector_id" validate:"required,uuid"`
	ConnectorType string            `json:"connector_type" validate:"required"`
	Secrets       map[string]string `json:"secrets" validate:"required,min=1"`
}

// validateRequest runs struct validation plus any cross-field checks.
func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if sync, ok := req.(*SyncTriggerRequest); ok {
		if !sync.End.After(sync.Start) {
			return fmt.Errorf("end (%s) must be after start (%s)", sync.End, sync.Start)
		}
	}
	return nil
}
