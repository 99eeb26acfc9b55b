// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/tomtom215/syncfleet/internal/models"
)

// SyncContext is the job-scoped container shared by every collaborator of
// one sync job. It memoizes expensive values (for example "fetch all
// directory users") so the first caller computes and later callers share,
// and it owns the job's credential material, releasing everything tracked
// when the job ends regardless of outcome.
type SyncContext struct {
	Connector models.Connector
	Start     time.Time
	End       time.Time

	// Progress publishes the job's completion percentage; the handler wires
	// it to the status registry before handing the context to a data
	// source. Never nil after NewSyncContext.
	Progress ProgressFunc

	// Parallelism is the configured fan-out degree for this worker. Data
	// sources pass it to ParallelRun; the handler sets it from config.
	Parallelism int64

	mu      sync.Mutex
	values  map[string]*memoEntry
	closers []io.Closer
	closed  bool
}

// memoEntry is one in-flight or completed memoized value. done closes
// when the compute finishes, so only same-key callers wait on it.
type memoEntry struct {
	done chan struct{}
	val  any
	err  error
}

// NewSyncContext builds the context for one job covering [start, end).
func NewSyncContext(connector models.Connector, start, end time.Time) *SyncContext {
	return &SyncContext{
		Connector:   connector,
		Start:       start,
		End:         end,
		Progress:    func(float64) {},
		Parallelism: 1,
		values:      make(map[string]*memoEntry),
	}
}

// GetOrCompute returns the memoized value for key, computing it exactly
// once per job. The compute function runs outside the context lock, so a
// slow fetch only blocks callers asking for the same key; other keys and
// the rest of the fan-out proceed. A failed compute is not memoized and
// the next caller retries. compute must not request its own key.
func (c *SyncContext) GetOrCompute(key string, compute func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.values[key]; ok {
		c.mu.Unlock()
		<-e.done
		return e.val, e.err
	}
	e := &memoEntry{done: make(chan struct{})}
	c.values[key] = e
	c.mu.Unlock()

	e.val, e.err = compute()
	if e.err != nil {
		c.mu.Lock()
		if c.values != nil {
			delete(c.values, key)
		}
		c.mu.Unlock()
	}
	close(e.done)
	return e.val, e.err
}

// Memo is the typed form of GetOrCompute.
func Memo[T any](c *SyncContext, key string, compute func() (T, error)) (T, error) {
	v, err := c.GetOrCompute(key, func() (any, error) { return compute() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// TrackCloser registers job-lifetime resources (credential handles, API
// clients) released on Close in reverse tracking order.
func (c *SyncContext) TrackCloser(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer)
}

// Close releases every tracked resource. Safe to call more than once.
func (c *SyncContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.values = nil
	return errors.Join(errs...)
}
