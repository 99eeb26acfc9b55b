// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package batch

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/syncfleet/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(offset time.Duration, eventID string) models.HashedInteraction {
	return models.HashedInteraction{
		When:     baseTime.Add(offset),
		EventID:  eventID,
		SourceID: "src",
		TargetID: "tgt",
	}
}

// collect gathers emitted batches for inspection.
type collect struct {
	batches []Batch
}

func (c *collect) emit(b Batch) error {
	c.batches = append(c.batches, b)
	return nil
}

func (c *collect) records() []models.HashedInteraction {
	var all []models.HashedInteraction
	for _, b := range c.batches {
		all = append(all, b.Records...)
	}
	return all
}

func TestSplitter_GroupingInvariant(t *testing.T) {
	// Data sources produce facts event by event in chronological order,
	// so same-key records arrive together. No pair sharing
	// (bucket, event id) may land in different batches, whatever the
	// size settings.
	records := []models.HashedInteraction{
		rec(0, "msg-1"),
		rec(30*time.Second, "msg-1"),
		rec(time.Minute, "msg-1"),
		rec(time.Second, "msg-2"),
		rec(2*time.Minute, "msg-2"),
		rec(3*time.Minute, "msg-3"),
		rec(4*time.Minute, "msg-4"),
		rec(5*time.Minute, "msg-4"),
		rec(45*time.Minute, "msg-1"), // same event, later bucket
		rec(46*time.Minute, "msg-1"),
	}

	for _, cfg := range []Config{
		{BatchSize: 1, BufferSize: 2},
		{BatchSize: 2, BufferSize: 3},
		{BatchSize: 3, BufferSize: 100},
		{BatchSize: 100, BufferSize: 4},
	} {
		t.Run(fmt.Sprintf("batch%d_buffer%d", cfg.BatchSize, cfg.BufferSize), func(t *testing.T) {
			sink := &collect{}
			s := NewSplitter(cfg, sink.emit)

			for _, r := range records {
				if err := s.Push(r); err != nil {
					t.Fatalf("Push: %v", err)
				}
			}
			if err := s.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			if got := len(sink.records()); got != len(records) {
				t.Fatalf("emitted %d records, want %d", got, len(records))
			}

			batchOf := map[groupKey]int{}
			for i, b := range sink.batches {
				for _, r := range b.Records {
					key := keyOf(r)
					if prev, seen := batchOf[key]; seen && prev != i {
						t.Errorf("key %+v split across batches %d and %d", key, prev, i)
					}
					batchOf[key] = i
				}
			}
		})
	}
}

func TestSplitter_SoftOverflowKeepsEventTogether(t *testing.T) {
	sink := &collect{}
	s := NewSplitter(Config{BatchSize: 3, BufferSize: 100}, sink.emit)

	// Seven facts about one event and one about another.
	for i := 0; i < 7; i++ {
		if err := s.Push(rec(time.Duration(i)*time.Second, "big-event")); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if err := s.Push(rec(time.Hour, "small-event")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(sink.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(sink.batches))
	}
	// The first batch overflows the size target rather than splitting
	// the event.
	if len(sink.batches[0].Records) != 7 {
		t.Errorf("first batch = %d records, want 7", len(sink.batches[0].Records))
	}
}

func TestSplitter_EmitsInKeyOrder(t *testing.T) {
	sink := &collect{}
	s := NewSplitter(Config{BatchSize: 2, BufferSize: 100}, sink.emit)

	// Arrival order is reversed relative to key order.
	if err := s.Push(rec(2*time.Hour, "c"), rec(time.Hour, "b"), rec(0, "a")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	all := sink.records()
	for i := 1; i < len(all); i++ {
		if all[i].When.Before(all[i-1].When) {
			t.Errorf("records out of key order: %v after %v", all[i].When, all[i-1].When)
		}
	}
}

func TestSplitter_BatchNoMonotonic(t *testing.T) {
	sink := &collect{}
	s := NewSplitter(Config{BatchSize: 1, BufferSize: 2}, sink.emit)

	for i := 0; i < 6; i++ {
		if err := s.Push(rec(time.Duration(i)*time.Hour, fmt.Sprintf("e%d", i))); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	for i, b := range sink.batches {
		if b.BatchNo != i+1 {
			t.Errorf("batch %d has BatchNo %d", i, b.BatchNo)
		}
	}
}

func TestSplitter_DropsRecordsWithoutTimestamp(t *testing.T) {
	sink := &collect{}
	s := NewSplitter(Config{BatchSize: 10, BufferSize: 100}, sink.emit)

	if err := s.Push(models.HashedInteraction{EventID: "no-when"}, rec(0, "ok")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := sink.records(); len(got) != 1 || got[0].EventID != "ok" {
		t.Errorf("records = %v, want only the timestamped one", got)
	}
}

func TestSplitter_SpentAfterFlush(t *testing.T) {
	s := NewSplitter(Config{}, (&collect{}).emit)

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Flush(); !errors.Is(err, ErrSpent) {
		t.Errorf("second Flush err = %v, want ErrSpent", err)
	}
	if err := s.Push(rec(0, "late")); !errors.Is(err, ErrSpent) {
		t.Errorf("Push after Flush err = %v, want ErrSpent", err)
	}
}

func TestSplitter_EagerPassRetainsTrailingGroup(t *testing.T) {
	sink := &collect{}
	s := NewSplitter(Config{BatchSize: 2, BufferSize: 4}, sink.emit)

	// Four records trip the eager pass. The two trailing "tail" records
	// do not fill a closable batch and must stay buffered so a later
	// record of the same event still joins them.
	if err := s.Push(rec(0, "head"), rec(time.Second, "head"),
		rec(time.Hour, "tail"), rec(time.Hour+time.Second, "tail")); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if len(sink.batches) != 1 {
		t.Fatalf("eager pass emitted %d batches, want 1", len(sink.batches))
	}

	if err := s.Push(rec(time.Hour+2*time.Second, "tail")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	last := sink.batches[len(sink.batches)-1]
	if len(last.Records) != 3 {
		t.Errorf("final batch = %d records, want the full tail event of 3", len(last.Records))
	}
}

func TestSplitter_EmitErrorPropagates(t *testing.T) {
	wantErr := errors.New("sink unavailable")
	s := NewSplitter(Config{BatchSize: 1, BufferSize: 100}, func(Batch) error { return wantErr })

	if err := s.Push(rec(0, "a"), rec(time.Hour, "b")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Flush(); !errors.Is(err, wantErr) {
		t.Errorf("Flush err = %v, want %v", err, wantErr)
	}
}
