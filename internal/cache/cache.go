// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/syncfleet/internal/models"
)

// InteractionCache stores interactions in day buckets keyed by UTC
// calendar date.
type InteractionCache interface {
	// Push groups records by day and merges each group with anything
	// already stored for that day, deduplicated by domain equality.
	Push(ctx context.Context, records []models.HashedInteraction) error

	// Pull returns and removes everything stored for the given day.
	// It returns an empty slice, never an error, when the day holds
	// nothing.
	Pull(ctx context.Context, day time.Time) ([]models.HashedInteraction, error)

	// Close releases the cache and clears its backing storage.
	Close() error
}

// dayOf normalizes a timestamp to its UTC calendar date.
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// groupByDay buckets records by UTC calendar day, dropping duplicates
// within the input itself.
func groupByDay(records []models.HashedInteraction) map[time.Time]map[string]models.HashedInteraction {
	days := make(map[time.Time]map[string]models.HashedInteraction)
	for _, rec := range records {
		day := rec.Day()
		bucket, ok := days[day]
		if !ok {
			bucket = make(map[string]models.HashedInteraction)
			days[day] = bucket
		}
		bucket[rec.DedupKey()] = rec
	}
	return days
}
