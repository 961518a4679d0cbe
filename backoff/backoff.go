// Package backoff computes the delay a retry driver should wait before its
// next attempt.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy computes the delay before attempt, given the error the previous
// attempt failed with. attempt is the index of the attempt that just ran
// (>= 1). Implementations must be non-negative and finite; built-ins never
// return negative durations and saturate at Ceiling rather than overflow.
type Policy interface {
	NextBackoff(attempt uint, lastError error) time.Duration
}

// Func adapts a plain function to a Policy.
type Func func(attempt uint, lastError error) time.Duration

// NextBackoff implements Policy.
func (f Func) NextBackoff(attempt uint, lastError error) time.Duration {
	if f == nil {
		return 0
	}
	return f(attempt, lastError)
}

// Ceiling is the saturation point for exponential and Fibonacci growth:
// results that would exceed it are clamped to it rather than overflowing
// time.Duration's underlying int64 nanoseconds.
const Ceiling = 365 * 24 * time.Hour

// DefaultBase is the base delay used when a policy does not specify one.
const DefaultBase = 100 * time.Millisecond

// Constant always returns base, regardless of attempt number.
func Constant(base time.Duration) Policy {
	return Func(func(uint, error) time.Duration {
		return nonNegative(base)
	})
}

// Linear returns base * attempt.
func Linear(base time.Duration) Policy {
	return Func(func(attempt uint, _ error) time.Duration {
		return saturate(float64(nonNegative(base)) * float64(attempt))
	})
}

// Exponential returns base * 2^(attempt-1).
func Exponential(base time.Duration) Policy {
	return Func(func(attempt uint, _ error) time.Duration {
		exp := exponent(attempt)
		return saturate(float64(nonNegative(base)) * math.Pow(2, exp))
	})
}

// goldenRatioApprox is 8/5, the rational approximation to the golden ratio
// used by Fibonacci growth per spec.
const goldenRatioApprox = 8.0 / 5.0

// Fibonacci returns base * (8/5)^(attempt-1), a golden-ratio approximation
// to true Fibonacci-sequence growth that avoids maintaining running state.
func Fibonacci(base time.Duration) Policy {
	return Func(func(attempt uint, _ error) time.Duration {
		exp := exponent(attempt)
		return saturate(float64(nonNegative(base)) * math.Pow(goldenRatioApprox, exp))
	})
}

// Selected delegates to f(lastError) to choose a Policy, then evaluates it.
// f is called on every invocation; results are never cached.
func Selected(f func(lastError error) Policy) Policy {
	return Func(func(attempt uint, lastError error) time.Duration {
		if f == nil {
			return 0
		}
		inner := f(lastError)
		if inner == nil {
			return 0
		}
		return inner.NextBackoff(attempt, lastError)
	})
}

// exponent returns attempt-1 clamped to >= 0, as a float64 safe for
// math.Pow without overflowing for large attempt counts (math.Pow itself
// saturates to +Inf well before any realistic attempt count, and saturate
// clamps that to Ceiling).
func exponent(attempt uint) float64 {
	if attempt == 0 {
		return 0
	}
	return float64(attempt - 1)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// saturate rounds a floating-point nanosecond count to the nearest
// nanosecond and clamps it into [0, Ceiling], protecting against both
// negative inputs and int64 overflow from runaway exponential growth.
func saturate(nanos float64) time.Duration {
	if nanos <= 0 {
		return 0
	}
	if nanos >= float64(Ceiling) {
		return Ceiling
	}
	return time.Duration(math.Round(nanos))
}

// randFloat64 draws a uniform float64 in [0, 1) from the package-level
// source. Since Go 1.20 the top-level math/rand functions are
// automatically seeded from the runtime, so no explicit seeding is done
// here; Randomized is the one impure built-in.
func randFloat64() float64 {
	return rand.Float64()
}
