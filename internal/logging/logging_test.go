package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"msg=\"action started\"", "action=fire"}},
		{"", []string{"action=fire"}},
		{"JSON", []string{`"msg":"action started"`, `"action":"fire"`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, slog.LevelInfo, tt.format)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			logger.Info("action started", "action", "fire")
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}

	if _, err := New(&bytes.Buffer{}, slog.LevelInfo, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, slog.LevelWarn, "text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := logger.With("component", "scheduler")
	child.Debug("action started")
	child.Warn("schedule rejected", "resource", "cannon")

	out := buf.String()
	if strings.Contains(out, "action started") {
		t.Errorf("debug message not filtered: %s", out)
	}
	if !strings.Contains(out, "component=scheduler") || !strings.Contains(out, "resource=cannon") {
		t.Errorf("warn message missing attributes: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
