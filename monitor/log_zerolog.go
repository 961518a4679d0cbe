package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAction controls how a zerolog-backed monitor handles one event
// kind: either it logs nothing, or it logs at a fixed zerolog.Level.
type ZerologAction struct {
	Log   bool
	Level zerolog.Level
}

// ZerologLogNothing is the no-op ZerologAction.
var ZerologLogNothing = ZerologAction{}

// ZerologLogAt builds a ZerologAction that logs at level.
func ZerologLogAt(level zerolog.Level) ZerologAction {
	return ZerologAction{Log: true, Level: level}
}

// zerologMonitor adapts a zerolog.Logger into a Monitor, the second of the
// two concrete "LogEventsWith<Backend>" adapters spec §3 calls for;
// grounded on the same unbxd-go-base manifest that pulls in
// github.com/rs/zerolog alongside zap.
type zerologMonitor struct {
	log                                          zerolog.Logger
	retryingAction, interruptedAction, abortedAction ZerologAction
}

// LogEventsWithZerolog builds a Monitor that logs through logger, using
// the default per-event actions from spec §4.4 unless overridden.
func LogEventsWithZerolog(logger zerolog.Logger, opts ...ZerologOption) Monitor {
	m := &zerologMonitor{
		log:               logger,
		retryingAction:    ZerologLogAt(zerolog.InfoLevel),
		interruptedAction: ZerologLogAt(zerolog.WarnLevel),
		abortedAction:     ZerologLogAt(zerolog.ErrorLevel),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ZerologOption configures a zerolog-backed Monitor's per-event actions.
type ZerologOption func(*zerologMonitor)

func WithZerologRetryingAction(a ZerologAction) ZerologOption {
	return func(m *zerologMonitor) { m.retryingAction = a }
}

func WithZerologInterruptedAction(a ZerologAction) ZerologOption {
	return func(m *zerologMonitor) { m.interruptedAction = a }
}

func WithZerologAbortedAction(a ZerologAction) ZerologOption {
	return func(m *zerologMonitor) { m.abortedAction = a }
}

func (m *zerologMonitor) Retrying(_ context.Context, name string, err error, attempt int, backoff time.Duration, willRetry bool) {
	m.logEvent(m.retryingAction, name, err, attempt, func(e *zerolog.Event) {
		e.Dur("backoff", backoff).Bool("will_retry", willRetry)
	})
}

func (m *zerologMonitor) Interrupted(_ context.Context, name string, err error, attempt int) {
	m.logEvent(m.interruptedAction, name, err, attempt, nil)
}

func (m *zerologMonitor) Aborted(_ context.Context, name string, err error, attempt int) {
	m.logEvent(m.abortedAction, name, err, attempt, nil)
}

func (m *zerologMonitor) logEvent(action ZerologAction, name string, err error, attempt int, extra func(*zerolog.Event)) {
	if !action.Log {
		return
	}
	evt := m.log.WithLevel(action.Level).Str("name", name).Int("attempt", attempt).Err(err)
	if extra != nil {
		extra(evt)
	}
	evt.Msg("retry event")
}
