package retry

import (
	"context"
	"sync"

	"github.com/aponysus/atmos/classify"
	"github.com/aponysus/atmos/policy"
)

// AsyncOperation is a fallible action that produces its result
// asynchronously: it starts the work and returns a Future rather than
// blocking the calling goroutine. The asynchronous substrate (how the
// Future actually gets completed) is entirely up to the caller — spec §1
// names it an injected external collaborator.
type AsyncOperation[T any] func(ctx context.Context) *Future[T]

// Future is a minimal, single-producer future: NewFuture creates one
// alongside the Complete function used to resolve it exactly once.
// Idiomatic Go favors channels over a generic Future type, but the
// asynchronous driver needs an addressable completion (complete's result
// also tells racing callers whose outcome was kept), so Future wraps one.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an incomplete Future and the function that completes
// it. Calling complete more than once is a no-op after the first call; it
// reports whether this particular call was the one that completed the
// Future, so a racing caller can tell whether its own result was the one
// that stuck.
func NewFuture[T any]() (*Future[T], func(T, error) bool) {
	f := &Future[T]{done: make(chan struct{})}
	complete := func(val T, err error) bool {
		won := false
		f.once.Do(func() {
			f.val, f.err = val, err
			close(f.done)
			won = true
		})
		return won
	}
	return f, complete
}

// Done returns a channel that closes once the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the Future completes or ctx is done, whichever comes
// first.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// DoValueAsync runs the same state machine as DoValue, but op returns a
// Future instead of blocking: the driver attaches a continuation to it
// rather than calling it synchronously, and the backoff wait is scheduled
// via d's Scheduler.AfterFunc instead of a blocking sleep. The returned
// Future completes with the first successful value, or with the last
// error once the driver aborts.
//
// Cancelling ctx cancels any pending backoff wait and completes the Future
// with an *InterruptedError, firing a Monitor Interrupted event the same
// way an interrupted sync backoff sleep does. op is responsible for
// cancelling its own in-flight work cooperatively when ctx is done, since
// the driver holds no handle to it beyond the Future it returned.
func DoValueAsync[T any](ctx context.Context, d *Driver, name string, pol policy.RetryPolicy, op AsyncOperation[T]) *Future[T] {
	result, complete := NewFuture[T]()

	startTime := d.clock.Now()

	var mu sync.Mutex
	var attempt int
	var lastErr error
	var pendingCancel func()

	var step func()
	step = func() {
		mu.Lock()
		attempt++
		thisAttempt := attempt
		mu.Unlock()

		inner := op(ctx)
		go func() {
			val, err := inner.Wait(ctx)
			if err == nil {
				complete(val, nil)
				return
			}
			if ctx.Err() != nil {
				// The single watcher goroutine below owns completing result
				// and firing Interrupted once ctx.Done() fires; this attempt
				// has nothing further to do.
				return
			}

			cls := classifyError(pol.Classifier(), err)

			if cls == classify.Fatal {
				var zero T
				if complete(zero, err) {
					invokeAborted(ctx, pol.Monitor(), name, err, thisAttempt)
				}
				return
			}

			elapsed := d.clock.Now().Sub(startTime)
			nextAttempt := uint(thisAttempt + 1)
			if shouldStop(pol.Termination(), nextAttempt, elapsed) {
				var zero T
				if complete(zero, err) {
					invokeAborted(ctx, pol.Monitor(), name, err, thisAttempt)
				}
				return
			}

			backoffDur := nextBackoff(pol.Backoff(), uint(thisAttempt), err)

			mu.Lock()
			if ctx.Err() != nil {
				mu.Unlock()
				return
			}
			if cls != classify.SilentlyRecoverable {
				invokeRetrying(ctx, pol.Monitor(), name, err, thisAttempt, backoffDur, true)
			}
			lastErr = err
			pendingCancel = d.scheduler.AfterFunc(ctx, backoffDur, step)
			mu.Unlock()
		}()
	}

	// A single watcher for the whole call, rather than one per backoff
	// cycle: it outlives every individual attempt, cancels whatever backoff
	// is currently pending, and is the only goroutine that ever reports an
	// Interrupted event, so attempts that overlap a cancellation can never
	// race to report conflicting events.
	go func() {
		select {
		case <-ctx.Done():
			mu.Lock()
			if pendingCancel != nil {
				pendingCancel()
			}
			thisAttempt, reportedErr := attempt, lastErr
			if reportedErr == nil {
				reportedErr = ctx.Err()
			}
			mu.Unlock()

			var zero T
			// complete is the single source of truth for the race between
			// this watcher and whatever attempt goroutine is in flight: only
			// the call that actually wins gets to report its outcome, so a
			// success or abort landing the same instant as cancellation
			// never gets overwritten by a spurious Interrupted event here.
			if complete(zero, &InterruptedError{Name: name, Attempt: thisAttempt, Err: ctx.Err()}) {
				invokeInterrupted(ctx, pol.Monitor(), name, reportedErr, thisAttempt)
			}
		case <-result.Done():
		}
	}()

	step()
	return result
}

// DoAsync is the no-value form of DoValueAsync.
func DoAsync(ctx context.Context, d *Driver, name string, pol policy.RetryPolicy, op func(ctx context.Context) *Future[struct{}]) *Future[struct{}] {
	return DoValueAsync(ctx, d, name, pol, AsyncOperation[struct{}](op))
}
