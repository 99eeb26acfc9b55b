// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package hub

import (
	"io"
	"testing"

	"github.com/tomtom215/syncfleet/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

func TestRegistry_PutReplacesPriorConnection(t *testing.T) {
	r := NewRegistry()
	first := &wsConn{id: "conn-1"}
	second := &wsConn{id: "conn-2"}

	if prev := r.Put("w1", first); prev != nil {
		t.Errorf("first Put returned prior connection %v", prev)
	}
	if prev := r.Put("w1", second); prev != first {
		t.Errorf("second Put returned %v, want the replaced connection", prev)
	}

	conn, ok := r.Get("w1")
	if !ok || conn.id != "conn-2" {
		t.Errorf("Get = %v, %v; want the newest connection", conn, ok)
	}
}

func TestRegistry_StaleDisconnectDoesNotRemoveFreshEntry(t *testing.T) {
	r := NewRegistry()
	r.Put("w1", &wsConn{id: "conn-1"})
	r.Put("w1", &wsConn{id: "conn-2"})

	// The stale connection's teardown runs after the reconnect.
	if r.Remove("w1", "conn-1") {
		t.Error("removing by a stale connection id must be a no-op")
	}

	conn, ok := r.Get("w1")
	if !ok || conn.id != "conn-2" {
		t.Errorf("fresh entry lost: %v, %v", conn, ok)
	}

	if !r.Remove("w1", "conn-2") {
		t.Error("removing the current connection should succeed")
	}
	if _, ok := r.Get("w1"); ok {
		t.Error("entry still present after removal")
	}
}

func TestRegistry_WorkersSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Put("zeta", &wsConn{id: "c1"})
	r.Put("alpha", &wsConn{id: "c2"})

	workers := r.Workers()
	if len(workers) != 2 || workers[0].Name != "alpha" || workers[1].Name != "zeta" {
		t.Errorf("Workers = %v", workers)
	}
}
