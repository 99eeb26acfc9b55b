// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/batch"
	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

// captureSink collects delivered batches.
type captureSink struct {
	mu      sync.Mutex
	batches []batch.Batch
}

func (s *captureSink) Deliver(_ context.Context, b batch.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
	return nil
}

func (s *captureSink) records() []models.HashedInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HashedInteraction
	for _, b := range s.batches {
		out = append(out, b.Records...)
	}
	return out
}

func rec(day, hour int, eventID, source string) models.HashedInteraction {
	return models.HashedInteraction{
		When:     time.Date(2026, 4, day, hour, 0, 0, 0, time.UTC),
		EventID:  eventID,
		SourceID: source,
		TargetID: "t1",
	}
}

func TestStreamFactory_MemoryPath(t *testing.T) {
	snk := &captureSink{}
	factory := NewStreamFactory(Config{BatchSize: 2, BufferSize: 8}, nil, snk)

	stream, flush, err := factory(models.Connector{ID: uuid.New(), Type: "google-mail"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	// Two days pushed out of order, plus one duplicate fact.
	if err := stream.Push(rec(2, 9, "e3", "a"), rec(1, 9, "e1", "a")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stream.Push(rec(1, 9, "e1", "b"), rec(1, 9, "e1", "a")); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := snk.records()
	if len(got) != 3 {
		t.Fatalf("delivered %d records, want 3 after dedup", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].When.Before(got[i-1].When) {
			t.Errorf("records out of day order at %d: %v after %v", i, got[i].When, got[i-1].When)
		}
	}
}

func TestStreamFactory_BatchNumbersIncrease(t *testing.T) {
	snk := &captureSink{}
	factory := NewStreamFactory(Config{BatchSize: 1, BufferSize: 8}, nil, snk)

	stream, flush, err := factory(models.Connector{ID: uuid.New(), Type: "google-mail"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := stream.Push(rec(1, 9+i, "e"+string(rune('a'+i)), "s")); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	if err := flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if len(snk.batches) < 2 {
		t.Fatalf("batches = %d, want several", len(snk.batches))
	}
	for i, b := range snk.batches {
		if b.BatchNo != i+1 {
			t.Errorf("batch %d has BatchNo %d", i, b.BatchNo)
		}
	}
}

func TestStreamFactory_BadgerPath(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer db.Close()

	snk := &captureSink{}
	factory := NewStreamFactory(Config{BatchSize: 10, BufferSize: 40, CacheSecret: "s3cret"}, db, snk)

	stream, flush, err := factory(models.Connector{ID: uuid.New(), Type: "google-mail"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if err := stream.Push(rec(1, 9, "e1", "a"), rec(1, 10, "e2", "b")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if got := len(snk.records()); got != 2 {
		t.Errorf("delivered %d records, want 2", got)
	}
}

func TestStreamFactory_BadgerRequiresSecret(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer db.Close()

	factory := NewStreamFactory(Config{BatchSize: 10, BufferSize: 40}, db, &captureSink{})
	if _, _, err := factory(models.Connector{ID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing cache secret")
	}
}
