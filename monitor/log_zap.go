package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAction controls how a zap-backed monitor handles one event kind:
// either it logs nothing, or it logs at a fixed zapcore.Level.
type ZapAction struct {
	Log   bool
	Level zapcore.Level
}

// ZapLogNothing is the no-op ZapAction.
var ZapLogNothing = ZapAction{}

// ZapLogAt builds a ZapAction that logs at level.
func ZapLogAt(level zapcore.Level) ZapAction {
	return ZapAction{Log: true, Level: level}
}

// zapMonitor adapts a *zap.Logger into a Monitor, per spec §3's
// "LogEventsWith<Backend>(sink, retryingAction, interruptedAction,
// abortedAction)". Grounded on the functional-options + sink-interface
// style of the teacher's retry.ExecutorOption/Observer wiring, generalized
// to a concrete structured-logging backend drawn from the retrieved
// corpus (other_examples manifest unbxd-go-base imports go.uber.org/zap).
type zapMonitor struct {
	log                                         *zap.Logger
	retryingAction, interruptedAction, abortedAction ZapAction
}

// LogEventsWithZap builds a Monitor that logs through logger, using the
// default per-event actions from spec §4.4 (retrying=info,
// interrupted=warn, aborted=error) unless overridden.
func LogEventsWithZap(logger *zap.Logger, opts ...ZapOption) Monitor {
	m := &zapMonitor{
		log:               logger,
		retryingAction:    ZapLogAt(zapcore.InfoLevel),
		interruptedAction: ZapLogAt(zapcore.WarnLevel),
		abortedAction:     ZapLogAt(zapcore.ErrorLevel),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ZapOption configures a zap-backed Monitor's per-event actions.
type ZapOption func(*zapMonitor)

func WithZapRetryingAction(a ZapAction) ZapOption {
	return func(m *zapMonitor) { m.retryingAction = a }
}

func WithZapInterruptedAction(a ZapAction) ZapOption {
	return func(m *zapMonitor) { m.interruptedAction = a }
}

func WithZapAbortedAction(a ZapAction) ZapOption {
	return func(m *zapMonitor) { m.abortedAction = a }
}

func (m *zapMonitor) Retrying(_ context.Context, name string, err error, attempt int, backoff time.Duration, willRetry bool) {
	m.logEvent(m.retryingAction, name, err, attempt, zap.Duration("backoff", backoff), zap.Bool("will_retry", willRetry))
}

func (m *zapMonitor) Interrupted(_ context.Context, name string, err error, attempt int) {
	m.logEvent(m.interruptedAction, name, err, attempt)
}

func (m *zapMonitor) Aborted(_ context.Context, name string, err error, attempt int) {
	m.logEvent(m.abortedAction, name, err, attempt)
}

func (m *zapMonitor) logEvent(action ZapAction, name string, err error, attempt int, extra ...zap.Field) {
	if !action.Log || m.log == nil {
		return
	}
	fields := append([]zap.Field{
		zap.String("name", name),
		zap.Int("attempt", attempt),
		zap.Error(err),
	}, extra...)
	m.log.Check(action.Level, "retry event").Write(fields...)
}
