// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
)

func newCapturedSlog(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	zl := zerolog.New(buf).Level(zerolog.DebugLevel)
	return slog.New(NewSlogHandlerWithLogger(zl)), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogHandler_RoutesToZerolog(t *testing.T) {
	logger, buf := newCapturedSlog(t)

	logger.Info("worker connected", slog.String("worker", "w1"), slog.Int("attempt", 3))

	entry := decodeLine(t, buf)
	if entry["level"] != "info" || entry["message"] != "worker connected" {
		t.Errorf("entry = %v", entry)
	}
	if entry["worker"] != "w1" || entry["attempt"] != float64(3) {
		t.Errorf("attrs not carried: %v", entry)
	}
}

func TestSlogHandler_GroupsFlattenToDottedKeys(t *testing.T) {
	logger, buf := newCapturedSlog(t)

	logger.WithGroup("supervisor").Error("service failed", slog.String("service", "hub"))

	entry := decodeLine(t, buf)
	if entry["supervisor.service"] != "hub" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSlogHandler_WithAttrsPersist(t *testing.T) {
	logger, buf := newCapturedSlog(t)

	logger.With(slog.String("component", "tree")).Warn("restarting")

	entry := decodeLine(t, buf)
	if entry["component"] != "tree" || entry["level"] != "warn" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSlogHandler_EnabledHonorsLevel(t *testing.T) {
	zl := zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel)
	h := NewSlogHandlerWithLogger(zl)

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
