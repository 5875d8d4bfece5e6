package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetLevel(t *testing.T) {
	if got := GetLevel("debug"); got != "DEBUG" {
		t.Errorf("GetLevel(debug) = %q, expected DEBUG", got)
	}
	if got := GetLevel("nonsense"); got != "INFO" {
		t.Errorf("GetLevel(nonsense) = %q, expected INFO", got)
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", buf.String())
	}

	log.Warn("submission rejected", "submission_id", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "submission rejected" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["submission_id"] != "abc" {
		t.Errorf("submission_id = %v", record["submission_id"])
	}
	if record["service"] != "credvault" {
		t.Errorf("service = %v", record["service"])
	}
}
