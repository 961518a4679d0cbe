// Package retry implements the retry driver: the stateful component that
// repeatedly invokes an operation, classifies failures, consults a
// termination policy and a backoff policy, emits monitor events, and
// sleeps between attempts until the operation succeeds, is classified
// Fatal, or a termination condition is reached.
package retry

import (
	"context"
	"time"

	"github.com/aponysus/atmos/backoff"
	"github.com/aponysus/atmos/classify"
	"github.com/aponysus/atmos/monitor"
	"github.com/aponysus/atmos/policy"
	"github.com/aponysus/atmos/termination"
)

// Operation is a fallible, synchronous action with no return value beyond
// success/failure.
type Operation func(ctx context.Context) error

// OperationValue is a fallible, synchronous action that produces a value
// on success.
type OperationValue[T any] func(ctx context.Context) (T, error)

// Driver owns the injected Clock and Scheduler a retry invocation uses.
// A Driver has no other state: every Do/DoValue call is self-contained,
// so a single Driver is safe to share and call concurrently, matching
// spec §5 ("multiple concurrent retry calls on the same RetryPolicy are
// safe because RetryPolicy is immutable and per-call state is local").
type Driver struct {
	clock     Clock
	scheduler Scheduler
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock overrides the Driver's Clock. Defaults to SystemClock.
func WithClock(c Clock) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// WithScheduler overrides the Driver's Scheduler. Defaults to
// SystemScheduler.
func WithScheduler(s Scheduler) DriverOption {
	return func(d *Driver) { d.scheduler = s }
}

// NewDriver builds a Driver with the given options, defaulting to the
// real system clock and scheduler.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{clock: SystemClock, scheduler: SystemScheduler}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Default is the package-level Driver used by the package-level Do
// convenience function; it uses the real system clock and scheduler.
var Default = NewDriver()

// Do runs op under pol using d, retrying per pol's axes. name is an
// optional label surfaced to the monitor and in rendered messages; pass
// "" if unnamed.
func (d *Driver) Do(ctx context.Context, name string, pol policy.RetryPolicy, op Operation) error {
	_, err := DoValue(ctx, d, name, pol, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op under pol using the package-level Default driver.
func Do(ctx context.Context, name string, pol policy.RetryPolicy, op Operation) error {
	return Default.Do(ctx, name, pol, op)
}

// DoValue runs op under pol using d, retrying per pol's axes, and returns
// the value the operation produced on success.
//
// This is the one place the state machine of spec §4.5.3 lives:
// Attempting -> (Succeeded | Classifying); Classifying -> (Aborting |
// WaitingTermination); WaitingTermination -> (Aborting | Backing);
// Backing -> Sleeping; Sleeping -> (Interrupted | Attempting).
func DoValue[T any](ctx context.Context, d *Driver, name string, pol policy.RetryPolicy, op OperationValue[T]) (T, error) {
	capture, capturing := timelineCaptureFromContext(ctx)
	// Sub-calls made from within op must not accidentally reuse this
	// invocation's capture.
	opCtx := ctx
	if capturing {
		opCtx = context.WithValue(ctx, timelineCaptureKey{}, (*TimelineCapture)(nil))
	}

	startTime := d.clock.Now()
	var tl Timeline
	if capturing {
		tl.Name = name
		tl.Start = startTime
	}

	var zero T
	attempt := 1
	for {
		attemptStart := d.clock.Now()
		val, err := op(opCtx)
		attemptEnd := d.clock.Now()

		if err == nil {
			if capturing {
				recordFinalAttempt(&tl, capture, attempt, attemptStart, attemptEnd, nil, classify.Recoverable, nil)
			}
			return val, nil
		}

		cls := classifyError(pol.Classifier(), err)

		if cls == classify.Fatal {
			invokeAborted(opCtx, pol.Monitor(), name, err, attempt)
			if capturing {
				recordFinalAttempt(&tl, capture, attempt, attemptStart, attemptEnd, err, cls, err)
			}
			return zero, err
		}

		elapsed := d.clock.Now().Sub(startTime)
		nextAttempt := uint(attempt + 1)
		if shouldStop(pol.Termination(), nextAttempt, elapsed) {
			invokeAborted(opCtx, pol.Monitor(), name, err, attempt)
			if capturing {
				recordFinalAttempt(&tl, capture, attempt, attemptStart, attemptEnd, err, cls, err)
			}
			return zero, err
		}

		backoffDur := nextBackoff(pol.Backoff(), uint(attempt), err)

		if cls != classify.SilentlyRecoverable {
			invokeRetrying(opCtx, pol.Monitor(), name, err, attempt, backoffDur, true)
		}

		if capturing {
			tl.Attempts = append(tl.Attempts, AttemptRecord{
				Attempt: attempt, Start: attemptStart, End: attemptEnd, Err: err,
				Classification: cls, Backoff: backoffDur,
			})
		}

		if sleepErr := d.scheduler.Sleep(ctx, backoffDur); sleepErr != nil {
			invokeInterrupted(opCtx, pol.Monitor(), name, err, attempt)
			interruptErr := &InterruptedError{Name: name, Attempt: attempt, Err: sleepErr}
			if capturing {
				finalizeTimeline(&tl, capture, d.clock.Now(), interruptErr)
			}
			return zero, interruptErr
		}

		attempt++
	}
}

// recordFinalAttempt appends the last AttemptRecord of an invocation and
// stores the completed Timeline: the success, Fatal-abort, and
// termination-abort exit paths all end this way, differing only in the
// error and FinalErr they carry.
func recordFinalAttempt(tl *Timeline, capture *TimelineCapture, attempt int, start, end time.Time, err error, cls classify.Classification, finalErr error) {
	tl.Attempts = append(tl.Attempts, AttemptRecord{
		Attempt: attempt, Start: start, End: end, Err: err, Classification: cls,
	})
	finalizeTimeline(tl, capture, end, finalErr)
}

// finalizeTimeline closes out tl and hands it to capture. The interrupted-
// sleep exit path calls this directly since its AttemptRecord (with its
// Backoff value) was already appended before the sleep was attempted.
func finalizeTimeline(tl *Timeline, capture *TimelineCapture, end time.Time, finalErr error) {
	tl.End = end
	tl.FinalErr = finalErr
	capture.store(tl)
}

func classifyError(c classify.Classifier, err error) classify.Classification {
	if c == nil {
		return classify.Recoverable
	}
	return c.Classify(err)
}

// shouldStop and nextBackoff give the Termination and Backoff axes the
// same nil-safety classifyError already gives the Classifier axis: a
// policy.RetryPolicy{} built outside the package (its fields are
// unexported, but the zero value is always constructible) must not panic
// the caller's goroutine just for leaving an axis unset.
func shouldStop(t termination.Policy, nextAttempt uint, elapsed time.Duration) bool {
	if t == nil {
		return termination.Default.ShouldStop(nextAttempt, elapsed)
	}
	return t.ShouldStop(nextAttempt, elapsed)
}

func nextBackoff(b backoff.Policy, attempt uint, lastErr error) time.Duration {
	if b == nil {
		return backoff.Fibonacci(backoff.DefaultBase).NextBackoff(attempt, lastErr)
	}
	return b.NextBackoff(attempt, lastErr)
}

// invokeRetrying/invokeInterrupted/invokeAborted recover from a panicking
// Monitor so a misbehaving observability sink can never affect the
// driver's own result (spec §7: "Monitor side-effect failures are
// swallowed").
func invokeRetrying(ctx context.Context, m monitor.Monitor, name string, err error, attempt int, backoff time.Duration, willRetry bool) {
	defer func() { _ = recover() }()
	if m != nil {
		m.Retrying(ctx, name, err, attempt, backoff, willRetry)
	}
}

func invokeInterrupted(ctx context.Context, m monitor.Monitor, name string, err error, attempt int) {
	defer func() { _ = recover() }()
	if m != nil {
		m.Interrupted(ctx, name, err, attempt)
	}
}

func invokeAborted(ctx context.Context, m monitor.Monitor, name string, err error, attempt int) {
	defer func() { _ = recover() }()
	if m != nil {
		m.Aborted(ctx, name, err, attempt)
	}
}
