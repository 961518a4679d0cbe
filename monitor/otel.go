package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OtelMonitor records retry-boundary events as span events on the span
// found in ctx, grounded on the teacher's examples/otel/go.mod (a
// dedicated OpenTelemetry example module alongside the Prometheus one).
// If ctx carries no active span, calls are no-ops: the retry driver must
// work whether or not tracing is wired in for a given call.
type OtelMonitor struct{}

// NewOtelMonitor returns an OtelMonitor. It holds no state: the span it
// annotates is read fresh from each call's context.
func NewOtelMonitor() *OtelMonitor { return &OtelMonitor{} }

func (*OtelMonitor) Retrying(ctx context.Context, name string, err error, attempt int, backoff time.Duration, willRetry bool) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("retrying", trace.WithAttributes(
		attribute.String("atmos.name", name),
		attribute.Int("atmos.attempt", attempt),
		attribute.String("atmos.error", errString(err)),
		attribute.Int64("atmos.backoff_ms", backoff.Milliseconds()),
		attribute.Bool("atmos.will_retry", willRetry),
	))
}

func (*OtelMonitor) Interrupted(ctx context.Context, name string, err error, attempt int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("interrupted", trace.WithAttributes(
		attribute.String("atmos.name", name),
		attribute.Int("atmos.attempt", attempt),
		attribute.String("atmos.error", errString(err)),
	))
	span.SetStatus(codes.Error, "retry interrupted")
}

func (*OtelMonitor) Aborted(ctx context.Context, name string, err error, attempt int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("aborted", trace.WithAttributes(
		attribute.String("atmos.name", name),
		attribute.Int("atmos.attempt", attempt),
		attribute.String("atmos.error", errString(err)),
	))
	span.SetStatus(codes.Error, "retry aborted")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
