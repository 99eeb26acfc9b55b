// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package models

import (
	"fmt"
	"time"
)

// HashedInteraction is one immutable fact produced by a data source: a
// message, meeting, reaction, or similar event between two pseudonymized
// identities. EventID groups related facts (e.g. every reaction to one
// message) that must travel in the same batch.
type HashedInteraction struct {
	When       time.Time `json:"when"`
	EventID    string    `json:"event_id"`
	SourceID   string    `json:"source_id"`
	TargetID   string    `json:"target_id"`
	Channel    string    `json:"channel,omitempty"`
	ActionType string    `json:"action_type,omitempty"`
	DurationS  int64     `json:"duration_s,omitempty"`
}

// DedupKey identifies an interaction for set-union deduplication: two
// interactions with the same timestamp, endpoints, channel, and action type
// are the same fact.
func (i HashedInteraction) DedupKey() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s",
		i.When.UTC().UnixNano(), i.SourceID, i.TargetID, i.Channel, i.ActionType)
}

// Day returns the UTC calendar date the interaction belongs to, truncated
// to midnight. This is the cache's day-bucket key.
func (i HashedInteraction) Day() time.Time {
	u := i.When.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
