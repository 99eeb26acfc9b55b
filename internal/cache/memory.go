// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/models"
)

// MemoryCache is the volatile variant: day buckets live in process
// memory and vanish on restart.
type MemoryCache struct {
	mu   sync.Mutex
	days map[time.Time]map[string]models.HashedInteraction
}

// NewMemoryCache builds an empty in-memory interaction cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{days: make(map[time.Time]map[string]models.HashedInteraction)}
}

// Push merges records into their day buckets, deduplicated by domain
// equality.
func (c *MemoryCache) Push(_ context.Context, records []models.HashedInteraction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for day, incoming := range groupByDay(records) {
		bucket, ok := c.days[day]
		if !ok {
			bucket = make(map[string]models.HashedInteraction)
			c.days[day] = bucket
		}
		for key, rec := range incoming {
			bucket[key] = rec
		}
	}
	metrics.CacheOps.WithLabelValues("push", "ok").Inc()
	return nil
}

// Pull returns and removes the bucket for the given day.
func (c *MemoryCache) Pull(_ context.Context, day time.Time) ([]models.HashedInteraction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	day = dayOf(day)
	bucket := c.days[day]
	delete(c.days, day)

	records := make([]models.HashedInteraction, 0, len(bucket))
	for _, rec := range bucket {
		records = append(records, rec)
	}
	metrics.CacheOps.WithLabelValues("pull", "ok").Inc()
	return records, nil
}

// Close drops every bucket.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days = make(map[time.Time]map[string]models.HashedInteraction)
	return nil
}
