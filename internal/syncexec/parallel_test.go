// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package syncexec

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

func TestParallelRun_AggregatesOutcomes(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	result, err := ParallelRun(context.Background(), items, 2, nil,
		func(_ context.Context, item string) (TaskOutcome, error) {
			if item == "c" {
				return TaskOutcome{}, errors.New("mailbox locked")
			}
			return TaskOutcome{InteractionsCount: 10}, nil
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if result.TasksCount != 4 {
		t.Errorf("TasksCount = %d, want 4", result.TasksCount)
	}
	if result.FailedTasksCount != 1 {
		t.Errorf("FailedTasksCount = %d, want 1", result.FailedTasksCount)
	}
	if result.TotalInteractionsCount != 30 {
		t.Errorf("TotalInteractionsCount = %d, want 30", result.TotalInteractionsCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v", result.Errors)
	}
	if math.Abs(result.SuccessRate()-75.0) > 1e-9 {
		t.Errorf("SuccessRate = %v, want 75", result.SuccessRate())
	}
}

func TestParallelRun_ProgressStartsAtZeroAndReachesHundred(t *testing.T) {
	var mu sync.Mutex
	var reports []float64

	_, err := ParallelRun(context.Background(), []int{1, 2, 3}, 1,
		func(percent float64) {
			mu.Lock()
			reports = append(reports, percent)
			mu.Unlock()
		},
		func(_ context.Context, _ int) (TaskOutcome, error) {
			return TaskOutcome{}, nil
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if len(reports) != 4 {
		t.Fatalf("reports = %v, want initial 0 plus one per item", reports)
	}
	if reports[0] != 0.0 {
		t.Errorf("first report = %v, want 0.0", reports[0])
	}
	if math.Abs(reports[len(reports)-1]-100.0) > 1e-9 {
		t.Errorf("last report = %v, want 100.0", reports[len(reports)-1])
	}
}

func TestParallelRun_ProgressReportedAfterFailuresToo(t *testing.T) {
	var reports []float64

	_, err := ParallelRun(context.Background(), []int{1, 2}, 1,
		func(percent float64) { reports = append(reports, percent) },
		func(_ context.Context, item int) (TaskOutcome, error) {
			return TaskOutcome{}, errors.New("always fails")
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	// 0.0, 50.0, 100.0 even though every item failed.
	if len(reports) != 3 || reports[2] != 100.0 {
		t.Errorf("reports = %v", reports)
	}
}

func TestParallelRun_BoundedParallelism(t *testing.T) {
	const limit = 3
	var current, peak atomic.Int64

	items := make([]int, 20)
	_, err := ParallelRun(context.Background(), items, limit, nil,
		func(_ context.Context, _ int) (TaskOutcome, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return TaskOutcome{}, nil
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want <= %d", got, limit)
	}
}

func TestParallelRun_FailureDoesNotAbortSiblings(t *testing.T) {
	var ran atomic.Int64

	result, err := ParallelRun(context.Background(), []int{0, 1, 2, 3, 4}, 2, nil,
		func(_ context.Context, item int) (TaskOutcome, error) {
			ran.Add(1)
			if item == 0 {
				panic("worst case: a panicking item")
			}
			return TaskOutcome{InteractionsCount: 1}, nil
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if ran.Load() != 5 {
		t.Errorf("ran = %d items, want all 5", ran.Load())
	}
	if result.FailedTasksCount != 1 {
		t.Errorf("FailedTasksCount = %d, want 1", result.FailedTasksCount)
	}
	if result.TotalInteractionsCount != 4 {
		t.Errorf("TotalInteractionsCount = %d, want 4", result.TotalInteractionsCount)
	}
}

func TestParallelRun_CancellationStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	items := make([]int, 50)

	_, err := ParallelRun(ctx, items, 1, nil,
		func(ctx context.Context, _ int) (TaskOutcome, error) {
			if started.Add(1) == 2 {
				cancel()
			}
			return TaskOutcome{}, nil
		})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if started.Load() >= 50 {
		t.Error("cancellation did not stop scheduling new items")
	}
}

func TestParallelRun_ZeroItems(t *testing.T) {
	var reports []float64

	result, err := ParallelRun(context.Background(), nil, 4,
		func(percent float64) { reports = append(reports, percent) },
		func(_ context.Context, _ int) (TaskOutcome, error) {
			return TaskOutcome{}, nil
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if result.TasksCount != 0 {
		t.Errorf("TasksCount = %d", result.TasksCount)
	}
	// Zero tasks report a success rate of zero by definition.
	if result.SuccessRate() != 0.0 {
		t.Errorf("SuccessRate = %v, want 0.0", result.SuccessRate())
	}
	if len(reports) != 1 || reports[0] != 0.0 {
		t.Errorf("reports = %v, want single 0.0", reports)
	}
}

func TestParallelRun_StructuredTaskErrorsPreserved(t *testing.T) {
	result, err := ParallelRun(context.Background(), []int{1}, 1, nil,
		func(_ context.Context, _ int) (TaskOutcome, error) {
			return TaskOutcome{}, models.TaskError{Kind: "mail", Message: "denied", Cause: "403"}
		})
	if err != nil {
		t.Fatalf("ParallelRun: %v", err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v", result.Errors)
	}
	if result.Errors[0].Kind != "mail" || result.Errors[0].Cause != "403" {
		t.Errorf("error = %+v", result.Errors[0])
	}
}
