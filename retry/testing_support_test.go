package retry

import (
	"context"
	"sync"
	"time"
)

// manualClock is a fake Clock that advances only when told to, letting
// tests exercise LimitAmountOfTimeSpent and randomized backoff
// deterministically without real sleeps.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(0, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// instantScheduler never actually sleeps; it advances clock (if given) by
// the requested duration and returns immediately, unless ctx is already
// done. This keeps attempt-cap and backoff-sequencing tests fast while
// still exercising the real driver loop and real Backoff computations.
type instantScheduler struct {
	clock *manualClock
}

func (s instantScheduler) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if s.clock != nil {
		s.clock.Advance(d)
	}
	return nil
}

func (s instantScheduler) AfterFunc(ctx context.Context, d time.Duration, f func()) func() {
	if s.clock != nil {
		s.clock.Advance(d)
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		default:
			f()
		}
	}()
	return func() { close(done) }
}

// blockingScheduler's AfterFunc never fires f on its own: each call pushes
// a runnable wrapping f onto fireFn instead of invoking it, so a test can
// synchronize on "a backoff was scheduled" by receiving from fireFn, then
// exercise cancellation while that backoff is still pending, the way a
// real timer would behave before it elapses.
type blockingScheduler struct {
	fireFn chan func()
}

func newBlockingScheduler() *blockingScheduler {
	return &blockingScheduler{fireFn: make(chan func(), 16)}
}

func (s *blockingScheduler) Sleep(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingScheduler) AfterFunc(ctx context.Context, d time.Duration, f func()) func() {
	var cancelled sync.Mutex
	done := false
	s.fireFn <- func() {
		cancelled.Lock()
		c := done
		cancelled.Unlock()
		if !c {
			f()
		}
	}
	return func() {
		cancelled.Lock()
		done = true
		cancelled.Unlock()
	}
}

// cancelingScheduler simulates an interrupted sleep: it immediately
// returns the given error instead of waiting.
type cancelingScheduler struct {
	err error
}

func (s cancelingScheduler) Sleep(context.Context, time.Duration) error {
	return s.err
}

func (s cancelingScheduler) AfterFunc(_ context.Context, _ time.Duration, f func()) func() {
	return func() {}
}
