package shared

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-42")
	if got := GetCorrelationID(ctx); got != "corr-42" {
		t.Errorf("expected corr-42, got %q", got)
	}
}

func TestCorrelationIDGeneratedWhenMissing(t *testing.T) {
	first := GetCorrelationID(context.Background())
	second := GetCorrelationID(context.Background())
	if first == "" || second == "" {
		t.Fatal("expected generated correlation ids")
	}
	if first == second {
		t.Error("expected distinct ids per call")
	}
}

func TestLogWithContextAttachesCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx := WithCorrelationID(context.Background(), "corr-7")
	LogWithContext(ctx, logger, "session started", zap.String("session_id", "s1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["correlation_id"] != "corr-7" {
		t.Errorf("expected correlation_id corr-7, got %v", fields["correlation_id"])
	}
	if fields["session_id"] != "s1" {
		t.Errorf("expected session_id field, got %v", fields["session_id"])
	}
}

func TestLogWithContextNilLogger(t *testing.T) {
	// Must not panic.
	LogWithContext(context.Background(), nil, "ignored")
	LogErrorWithContext(context.Background(), nil, "ignored", nil)
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Errorf("NewLogger(%q) failed: %v", level, err)
			continue
		}
		logger.Sync()
	}
}
