// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestWithComponent_ChainsAndTagsLines(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(Config{Level: "info", Output: io.Discard})

	WithComponent("hub").Warn().Str("worker", "w1").Msg("worker disconnected")

	line := buf.String()
	if !strings.Contains(line, `"component":"hub"`) {
		t.Errorf("component field missing: %s", line)
	}
	if !strings.Contains(line, `"worker":"w1"`) {
		t.Errorf("worker field missing: %s", line)
	}
	if !strings.Contains(line, `"level":"warn"`) {
		t.Errorf("level missing: %s", line)
	}
}

func TestWithComponent_ReusableAcrossLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(Config{Level: "info", Output: io.Discard})

	logger := WithComponent("cache")
	logger.Info().Msg("opened")
	logger.Debug().Msg("wiped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, `"component":"cache"`) {
			t.Errorf("component field missing: %s", line)
		}
	}
}
