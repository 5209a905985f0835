package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn, FormatHuman)
	logger.now = fixedClock

	logger.Debug("ignored", nil)
	logger.Info("ignored", nil)
	logger.Warn("kept", nil)
	logger.Error("kept", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestHumanFormatSortsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo, FormatHuman)
	logger.now = fixedClock

	logger.Info("diff degraded", map[string]any{"path": "a.ts", "commit": "abc123"})

	got := strings.TrimSpace(buf.String())
	want := `2024-03-01T12:00:00Z info  diff degraded commit=abc123 path=a.ts`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo, FormatJSON)
	logger.now = fixedClock

	logger.Warn("unterminated span", map[string]any{"file": "a.spec.ts", "line": 14})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["msg"] != "unterminated span" {
		t.Errorf("msg = %v, want unterminated span", entry["msg"])
	}
	if entry["file"] != "a.spec.ts" {
		t.Errorf("file = %v, want a.spec.ts", entry["file"])
	}
	if entry["line"] != float64(14) {
		t.Errorf("line = %v, want 14", entry["line"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
