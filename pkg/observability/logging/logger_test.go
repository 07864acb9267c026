// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"trace": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info("dropped")
	logger.Error("Teardown failed", "scenario", "FilesCanBeCopied")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["scenario"] != "FilesCanBeCopied" {
		t.Errorf("scenario attribute = %v", rec["scenario"])
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Info("Scenario finished", "status", "pass")
	if !strings.Contains(buf.String(), "status=pass") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing happens")
}
