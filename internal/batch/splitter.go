// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package batch

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/models"
)

// ErrSpent is returned when a splitter is used after Flush.
var ErrSpent = errors.New("batch: splitter already flushed")

// Batch is an ordered collection of records honoring the grouping
// invariant. BatchNo increases monotonically per stream so the sink can
// keep idempotent re-delivery bookkeeping.
type Batch struct {
	BatchNo int
	Records []models.HashedInteraction
}

// EmitFunc delivers one closed batch to the upstream sink.
type EmitFunc func(Batch) error

// Config sizes one splitter. BatchSize is the soft target per batch;
// BufferSize is the buffered-record threshold that triggers an eager
// emission pass during Push.
type Config struct {
	BatchSize  int
	BufferSize int
}

// Splitter buffers pushed records in grouping-key order and emits
// batches through the configured EmitFunc. It is safe for concurrent
// Push calls from the fan-out workers of one job.
type Splitter struct {
	mu      sync.Mutex
	cfg     Config
	emit    EmitFunc
	buf     recordHeap
	batchNo int
	spent   bool
}

// NewSplitter builds a splitter for one stream. Zero or negative config
// values fall back to defaults.
func NewSplitter(cfg Config, emit EmitFunc) *Splitter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 4 * cfg.BatchSize
	}
	return &Splitter{cfg: cfg, emit: emit}
}

// Push buffers records for emission. Records without a timestamp are
// dropped since they cannot be keyed. When the buffer reaches
// BufferSize an eager emission pass runs before Push returns.
//
// Grouping is only guaranteed for key-ordered input: once an eager pass
// has closed a batch, a later record with an already-emitted key lands
// in a new batch. Unordered producers should sort with SortRecords
// before pushing.
func (s *Splitter) Push(interactions ...models.HashedInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spent {
		return ErrSpent
	}

	for _, rec := range interactions {
		if rec.When.IsZero() {
			continue
		}
		heap.Push(&s.buf, rec)
	}

	if s.buf.Len() >= s.cfg.BufferSize {
		if err := s.drain(false); err != nil {
			return fmt.Errorf("eager emission: %w", err)
		}
	}
	return nil
}

// Flush emits everything remaining and spends the splitter. It must be
// called exactly once, at end of stream.
func (s *Splitter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spent {
		return ErrSpent
	}
	s.spent = true

	return s.drain(true)
}

// drain pops records in key order and closes a batch whenever the size
// target is met and the next record starts a different event. During an
// eager pass (final=false) the trailing partial batch goes back into the
// buffer so a later record of the same event can still join it; only
// Flush emits it.
func (s *Splitter) drain(final bool) error {
	var current []models.HashedInteraction

	for s.buf.Len() > 0 {
		next := s.buf[0]
		if len(current) >= s.cfg.BatchSize && next.EventID != current[len(current)-1].EventID {
			if err := s.emitBatch(current); err != nil {
				return err
			}
			current = nil
		}
		current = append(current, heap.Pop(&s.buf).(models.HashedInteraction))
	}

	if len(current) == 0 {
		return nil
	}
	if !final {
		for _, rec := range current {
			heap.Push(&s.buf, rec)
		}
		return nil
	}
	return s.emitBatch(current)
}

func (s *Splitter) emitBatch(records []models.HashedInteraction) error {
	s.batchNo++
	b := Batch{BatchNo: s.batchNo, Records: records}
	if err := s.emit(b); err != nil {
		return fmt.Errorf("emit batch %d: %w", b.BatchNo, err)
	}
	metrics.BatchSize.Observe(float64(len(records)))
	metrics.BatchesEmitted.Inc()
	return nil
}
