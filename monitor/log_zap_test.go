package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogEventsWithZap_DefaultLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := LogEventsWithZap(logger)

	m.Retrying(context.Background(), "fetch", errors.New("boom"), 1, 10*time.Millisecond, true)
	m.Interrupted(context.Background(), "fetch", errors.New("boom"), 2)
	m.Aborted(context.Background(), "fetch", errors.New("boom"), 3)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}

	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d level = %v, want %v", i, e.Level, want[i])
		}
	}
}

func TestLogEventsWithZap_LogNothingSuppresses(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := LogEventsWithZap(logger, WithZapRetryingAction(ZapLogNothing))

	m.Retrying(context.Background(), "fetch", errors.New("boom"), 1, 0, true)

	if got := logs.Len(); got != 0 {
		t.Fatalf("got %d log entries, want 0", got)
	}
}

func TestLogEventsWithZap_CustomLevelOverride(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := LogEventsWithZap(logger, WithZapAbortedAction(ZapLogAt(zapcore.DPanicLevel)))

	m.Aborted(context.Background(), "fetch", errors.New("boom"), 4)

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.DPanicLevel {
		t.Fatalf("entries = %+v, want one DPanic-level entry", entries)
	}
}

func TestLogEventsWithZap_FieldsCarryNameAndAttempt(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := LogEventsWithZap(logger)

	m.Retrying(context.Background(), "fetch", errors.New("boom"), 5, 25*time.Millisecond, true)

	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["name"] != "fetch" {
		t.Fatalf("name field = %v, want fetch", fields["name"])
	}
	if fields["attempt"] != int64(5) {
		t.Fatalf("attempt field = %v, want 5", fields["attempt"])
	}
}
