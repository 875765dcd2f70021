package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"ride-planner/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := logger.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_TagsService(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, "ride-planner", "info")
	l.Debug("hidden")
	l.Info("visible", "ride_id", "r-1")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "ride-planner" || entry["ride_id"] != "r-1" {
		t.Errorf("unexpected entry %v", entry)
	}
}
