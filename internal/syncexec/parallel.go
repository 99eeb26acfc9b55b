// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
)

// TaskOutcome is what one per-item task reports on success.
type TaskOutcome struct {
	InteractionsCount int64
}

// TaskFunc processes one sub-entity (typically one mailbox or user).
type TaskFunc[T any] func(ctx context.Context, item T) (TaskOutcome, error)

// ProgressFunc receives the completion percentage after every finished
// item, starting with an explicit 0.0 before any item runs.
type ProgressFunc func(percent float64)

// ParallelRun fans one task per item out with bounded parallelism and
// aggregates the outcomes. A failing item is recorded into the result and
// never aborts its siblings. Cancellation stops scheduling new items and is
// reported through the returned error, not as a task failure; items already
// in flight either complete or observe the cancellation themselves.
func ParallelRun[T any](ctx context.Context, items []T, parallelism int64, progress ProgressFunc, task TaskFunc[T]) (models.SyncResult, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	if progress == nil {
		progress = func(float64) {}
	}

	total := len(items)
	progress(0.0)

	var (
		mu                sync.Mutex
		processed         int
		totalInteractions int64
		taskErrors        []models.TaskError
	)

	sem := semaphore.NewWeighted(parallelism)
	var wg sync.WaitGroup

	for _, item := range items {
		// Acquire blocks until a slot frees up; a canceled context stops
		// scheduling the remaining items.
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, err := runOne(ctx, item, task)

			// One lock guards counting, error recording, and the progress
			// report so observers never see the counters out of order.
			mu.Lock()
			if err != nil {
				taskErrors = append(taskErrors, toTaskError(err))
			} else {
				totalInteractions += outcome.InteractionsCount
			}
			processed++
			progress(float64(processed) * 100.0 / float64(total))
			mu.Unlock()
		}(item)
	}

	wg.Wait()

	result := models.SyncResult{
		TasksCount:             total,
		FailedTasksCount:       len(taskErrors),
		TotalInteractionsCount: totalInteractions,
		Errors:                 taskErrors,
	}
	return result, ctx.Err()
}

// runOne executes a single task, converting panics into errors so one bad
// item cannot take down the whole fan-out.
func runOne[T any](ctx context.Context, item T, task TaskFunc[T]) (outcome TaskOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("sync task panicked")
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx, item)
}

// toTaskError converts an error into the structured wire-safe form.
func toTaskError(err error) models.TaskError {
	var te models.TaskError
	if errors.As(err, &te) {
		return te
	}
	return models.TaskError{Kind: "task", Message: err.Error()}
}
