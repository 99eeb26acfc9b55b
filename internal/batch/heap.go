// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package batch

import (
	"sort"
	"time"

	"github.com/tomtom215/syncfleet/internal/models"
)

const bucketWidth = 10 * time.Minute

// groupKey identifies the records that must travel in the same batch.
type groupKey struct {
	bucket  int64
	eventID string
}

func keyOf(rec models.HashedInteraction) groupKey {
	return groupKey{
		bucket:  rec.When.UTC().Truncate(bucketWidth).Unix(),
		eventID: rec.EventID,
	}
}

func (k groupKey) less(other groupKey) bool {
	if k.bucket != other.bucket {
		return k.bucket < other.bucket
	}
	return k.eventID < other.eventID
}

// SortRecords orders records in grouping-key order in place. Producers
// replaying from storage use it to restore the key-ordered arrival the
// splitter's grouping guarantee depends on.
func SortRecords(records []models.HashedInteraction) {
	sort.SliceStable(records, func(i, j int) bool {
		return keyOf(records[i]).less(keyOf(records[j]))
	})
}

// recordHeap orders buffered records by grouping key so the splitter
// drains them key by key regardless of arrival order.
type recordHeap []models.HashedInteraction

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	return keyOf(h[i]).less(keyOf(h[j]))
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(models.HashedInteraction))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	rec := old[n-1]
	*h = old[:n-1]
	return rec
}
