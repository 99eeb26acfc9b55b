// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package models

import "fmt"

// TaskError is a structured per-item failure carried inside a SyncResult.
// Per-item failures are recorded, never rethrown, so a single bad mailbox
// cannot abort its siblings.
type TaskError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e TaskError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// SyncResult aggregates the outcome of one sync job or sub-pipeline.
// Results from independent sub-pipelines of the same job (e.g. mail and
// calendar) are merged with Combine.
type SyncResult struct {
	TasksCount             int         `json:"tasks_count"`
	FailedTasksCount       int         `json:"failed_tasks_count"`
	TotalInteractionsCount int64       `json:"total_interactions_count"`
	Errors                 []TaskError `json:"errors,omitempty"`
}

// SuccessRate reports (n-k)*100/n for n tasks and k failures.
// A result with zero tasks reports 0.0, not 100.0.
func (r SyncResult) SuccessRate() float64 {
	if r.TasksCount == 0 {
		return 0.0
	}
	return float64(r.TasksCount-r.FailedTasksCount) * 100.0 / float64(r.TasksCount)
}

// Combine merges any number of results by summing counts and concatenating
// error lists. It is associative and commutative, so sub-pipeline results
// can be folded in any order.
func Combine(results ...SyncResult) SyncResult {
	var out SyncResult
	for _, r := range results {
		out.TasksCount += r.TasksCount
		out.FailedTasksCount += r.FailedTasksCount
		out.TotalInteractionsCount += r.TotalInteractionsCount
		out.Errors = append(out.Errors, r.Errors...)
	}
	return out
}
