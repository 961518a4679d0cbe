// Package termination decides, independent of error classification, when a
// retry driver should stop attempting an operation.
package termination

import "time"

// Policy decides whether the driver should stop before running the attempt
// numbered nextAttempt, given the wall-clock time elapsed since attempt #1
// began. nextAttempt is always >= 2: the driver never consults a Policy
// before attempt #1.
type Policy interface {
	ShouldStop(nextAttempt uint, elapsed time.Duration) bool
}

// Func adapts a plain function to a Policy.
type Func func(nextAttempt uint, elapsed time.Duration) bool

// ShouldStop implements Policy.
func (f Func) ShouldStop(nextAttempt uint, elapsed time.Duration) bool {
	if f == nil {
		return false
	}
	return f(nextAttempt, elapsed)
}

// ImmediatelyTerminate always stops, modeling "never retry": the driver
// still performs attempt #1, but any failure there is terminal.
func ImmediatelyTerminate() Policy {
	return Func(func(uint, time.Duration) bool { return true })
}

// NeverTerminate never stops of its own accord. A policy built on this
// termination only ends via a Fatal classification.
func NeverTerminate() Policy {
	return Func(func(uint, time.Duration) bool { return false })
}

// LimitNumberOfAttempts stops once the count of attempts already made
// reaches n. n must be >= 1; values below 1 are treated as 1.
func LimitNumberOfAttempts(n uint) Policy {
	if n < 1 {
		n = 1
	}
	return Func(func(nextAttempt uint, _ time.Duration) bool {
		return nextAttempt > n
	})
}

// LimitAmountOfTimeSpent stops once cumulative elapsed wall-clock time
// since attempt #1 began reaches or exceeds d. d must be > 0.
func LimitAmountOfTimeSpent(d time.Duration) Policy {
	return Func(func(_ uint, elapsed time.Duration) bool {
		return elapsed >= d
	})
}

// TerminateAfterBoth stops only once both a and b independently signal
// stop (logical AND): "stop after N attempts but not before T elapsed".
func TerminateAfterBoth(a, b Policy) Policy {
	return Func(func(nextAttempt uint, elapsed time.Duration) bool {
		return a.ShouldStop(nextAttempt, elapsed) && b.ShouldStop(nextAttempt, elapsed)
	})
}

// TerminateAfterEither stops as soon as either a or b signals stop
// (logical OR): "stop after N attempts or T elapsed, whichever first".
func TerminateAfterEither(a, b Policy) Policy {
	return Func(func(nextAttempt uint, elapsed time.Duration) bool {
		return a.ShouldStop(nextAttempt, elapsed) || b.ShouldStop(nextAttempt, elapsed)
	})
}

// Both is an operator-style alias for TerminateAfterBoth, read as a && b.
func Both(a, b Policy) Policy { return TerminateAfterBoth(a, b) }

// Either is an operator-style alias for TerminateAfterEither, read as a || b.
func Either(a, b Policy) Policy { return TerminateAfterEither(a, b) }

// Default is the termination policy used when a RetryPolicy does not
// specify one: stop after 3 attempts.
var Default = LimitNumberOfAttempts(3)
