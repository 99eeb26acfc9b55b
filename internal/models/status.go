// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package models

// TaskStatus describes the progress of an in-flight sync job. The zero
// value means "no job in progress" and doubles as the concurrency unlock
// signal in the status registry.
type TaskStatus struct {
	Caption        string  `json:"caption"`
	Description    string  `json:"description"`
	CompletionRate float64 `json:"completion_rate"`
}

// EmptyStatus is the released state for a connector.
var EmptyStatus = TaskStatus{}

// IsEmpty reports whether the status is the released zero value.
func (s TaskStatus) IsEmpty() bool {
	return s == EmptyStatus
}
