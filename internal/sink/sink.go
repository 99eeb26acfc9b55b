// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package sink delivers emitted batches to the upstream ingestion API.
// Delivery is at-least-once; batches carry a monotonic BatchNo so the
// ingestion side can deduplicate re-deliveries. The HTTP sink wraps its
// calls in a circuit breaker so a dead upstream fails fast instead of
// tying up sync workers.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/syncfleet/internal/batch"
	"github.com/tomtom215/syncfleet/internal/logging"
)

// Sink accepts one batch. Implementations surface transport failures to
// the caller; retry policy belongs to the caller, not the sink.
type Sink interface {
	Deliver(ctx context.Context, b batch.Batch) error
}

// HTTPSink posts batches as JSON to one ingestion endpoint.
type HTTPSink struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewHTTPSink builds a sink for the given ingestion URL.
//
// Circuit breaker configuration:
// - Max 3 requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 5 requests
func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "ingestion-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.WithComponent("sink").Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &HTTPSink{url: url, client: client, breaker: cb}
}

// Deliver posts one batch. A non-2xx response is a delivery failure.
func (s *HTTPSink) Deliver(ctx context.Context, b batch.Batch) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, b)
	})
	if err != nil {
		return fmt.Errorf("deliver batch %d: %w", b.BatchNo, err)
	}
	return nil
}

func (s *HTTPSink) post(ctx context.Context, b batch.Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ingestion API returned %d", resp.StatusCode)
	}
	return nil
}
