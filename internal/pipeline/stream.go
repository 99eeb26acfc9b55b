// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package pipeline assembles the worker's per-job data path: pushed
// interactions land in the day-bucketed cache, and the flush at end of
// stream replays them day by day through the grouping-safe splitter
// into the upstream sink.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/syncfleet/internal/batch"
	"github.com/tomtom215/syncfleet/internal/cache"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
	"github.com/tomtom215/syncfleet/internal/sink"
	"github.com/tomtom215/syncfleet/internal/syncexec"
)

// Config sizes the per-job splitter and keys the durable cache.
type Config struct {
	BatchSize  int
	BufferSize int

	// CacheSecret encrypts durable cache blobs. Required when db is set.
	CacheSecret string
}

// NewStreamFactory builds the stream factory wired into the sync
// handler. A nil db selects the in-memory cache.
func NewStreamFactory(cfg Config, db *badger.DB, snk sink.Sink) syncexec.StreamFactory {
	return func(connector models.Connector) (syncexec.Stream, func() error, error) {
		var store cache.InteractionCache
		if db != nil {
			bc, err := cache.NewBadgerCache(db, connector, cfg.CacheSecret)
			if err != nil {
				return nil, nil, fmt.Errorf("open interaction cache: %w", err)
			}
			store = bc
		} else {
			store = cache.NewMemoryCache()
		}

		stream := &cachedStream{cache: store, days: make(map[time.Time]struct{})}
		flush := func() error {
			return stream.flush(cfg, snk)
		}
		return stream, flush, nil
	}
}

// cachedStream buffers one job's interactions in the cache and
// remembers which days were touched so the flush knows what to replay.
type cachedStream struct {
	cache cache.InteractionCache

	mu   sync.Mutex
	days map[time.Time]struct{}
}

// Push implements syncexec.Stream.
func (s *cachedStream) Push(interactions ...models.HashedInteraction) error {
	if len(interactions) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, rec := range interactions {
		if rec.When.IsZero() {
			continue
		}
		s.days[rec.Day()] = struct{}{}
	}
	s.mu.Unlock()

	return s.cache.Push(context.Background(), interactions)
}

// flush replays every touched day through a fresh splitter and tears
// the cache down. Cache teardown failure is logged, not propagated; the
// data already left for the sink.
func (s *cachedStream) flush(cfg Config, snk sink.Sink) error {
	defer func() {
		if err := s.cache.Close(); err != nil {
			logging.WithComponent("pipeline").Warn().Err(err).Msg("cache teardown failed")
		}
	}()

	splitter := batch.NewSplitter(
		batch.Config{BatchSize: cfg.BatchSize, BufferSize: cfg.BufferSize},
		func(b batch.Batch) error {
			return snk.Deliver(context.Background(), b)
		},
	)

	for _, day := range s.sortedDays() {
		records, err := s.cache.Pull(context.Background(), day)
		if err != nil {
			return fmt.Errorf("pull day %s: %w", day.Format("2006-01-02"), err)
		}
		batch.SortRecords(records)
		if err := splitter.Push(records...); err != nil {
			return err
		}
	}
	return splitter.Flush()
}

func (s *cachedStream) sortedDays() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := make([]time.Time, 0, len(s.days))
	for day := range s.days {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
