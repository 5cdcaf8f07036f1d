// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCtxAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(original) })

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithCorrelationID(ctx, "corr4567")

	Ctx(ctx).Info().Msg("aggregation finished")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-123"`, `"correlation_id":"corr4567"`, "aggregation finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s, got: %s", want, out)
		}
	}
}

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if id := GenerateCorrelationID(); len(id) != 8 {
		t.Errorf("expected 8-character correlation ID, got %q", id)
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if len(a) != 36 || a == b {
		t.Errorf("expected unique 36-character request IDs, got %q and %q", a, b)
	}
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(original) })

	logger := NewSlogLogger().WithGroup("supervisor").With("service", "worker-pool")
	logger.Warn("service restarted", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"supervisor.service":"worker-pool"`, `"supervisor.attempt":2`, "service restarted"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s, got: %s", want, out)
		}
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	if got := slogToZerologLevel(slog.LevelDebug); got != zerolog.DebugLevel {
		t.Errorf("debug mapped to %v", got)
	}
	if got := slogToZerologLevel(slog.LevelError + 4); got != zerolog.ErrorLevel {
		t.Errorf("above-error mapped to %v", got)
	}
}
