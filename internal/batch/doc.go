// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet
//
// Package batch reshapes a continuous stream of interactions into
// size-bounded batches for the upstream sink without ever splitting the
// records of one logical event across two batches.
//
// Records are drained in grouping-key order (a ten minute time bucket
// plus the event id). A batch closes only when it has reached the target
// size and the next record belongs to a different event, so size is a
// soft target while grouping is the hard constraint. A single event with
// very many related facts can therefore push a batch past the target;
// sinks must size their limits with that in mind.
package batch
