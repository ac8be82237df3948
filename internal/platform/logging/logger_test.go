package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(LevelInfo, &buf).Named("reconciler")
	logger.Warn("ambiguous live match", "league_code", "PL", "candidates", 2, "error", errors.New("two rows"))
	logger.Debug("dropped below level")

	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"logger":"reconciler"`, `"league_code":"PL"`, `"candidates":2`, `"error":"two rows"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "dropped below level") {
		t.Fatalf("debug line must be filtered: %s", out)
	}
}

func TestLoggerAddsTraceFields(t *testing.T) {
	t.Parallel()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var buf bytes.Buffer
	New(LevelDebug, &buf).InfoContext(ctx, "sync finished", "records", 3)
	if !strings.Contains(buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`) {
		t.Fatalf("missing trace id: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	if ParseLevel("DEBUG") != LevelDebug || ParseLevel("warning") != LevelWarn || ParseLevel("") != LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
}

func TestLoggerAcceptsZapFieldsAndOddArgs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(LevelInfo, &buf).With("provider", "livescore").Info("snapshot fetched", zap.Int("rows", 12), "dangling")

	out := buf.String()
	for _, want := range []string{`"provider":"livescore"`, `"rows":12`, `"dangling":null`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestLoggerSyncIsSharedWithDerivedLoggers(t *testing.T) {
	t.Parallel()

	root := NewNop()
	child := root.Named("matcher")
	if err := child.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !root.synced.Load() {
		t.Fatalf("expected root to observe the child's sync")
	}
}
