package retry

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock abstracts wall-clock reads so termination policies keyed on
// elapsed time can be tested deterministically, grounded on the teacher's
// injected `clock func() time.Time` field on Executor.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the Clock backed by time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// Scheduler abstracts the two ways a driver waits for backoff: a blocking
// sleep for the synchronous driver, and a deferred callback for the
// asynchronous one. Both accept a context so a pending wait can be
// cancelled cooperatively.
type Scheduler interface {
	// Sleep blocks for d or until ctx is done, whichever comes first. It
	// returns ctx.Err() if cancelled before d elapses.
	Sleep(ctx context.Context, d time.Duration) error

	// AfterFunc schedules f to run after d, unless ctx is done first, in
	// which case f never runs. It returns a cancel function that prevents
	// f from running if it has not already started.
	AfterFunc(ctx context.Context, d time.Duration, f func()) (cancel func())
}

// SystemScheduler is the Scheduler backed by time.Timer.
var SystemScheduler Scheduler = systemScheduler{}

type systemScheduler struct{}

func (systemScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (systemScheduler) AfterFunc(ctx context.Context, d time.Duration, f func()) func() {
	var cancelled atomic.Bool
	timer := time.AfterFunc(d, func() {
		if cancelled.Load() || ctx.Err() != nil {
			return
		}
		f()
	})
	return func() {
		cancelled.Store(true)
		timer.Stop()
	}
}
