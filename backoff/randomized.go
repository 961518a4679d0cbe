package backoff

import "time"

// Range is an ordered pair [Low, High] used by Randomized. Low may be
// negative; construction normalizes Low <= High by swapping, per the
// open question in spec §9 ("this spec requires normalization (swap
// endpoints) or rejection at construction time").
type Range struct {
	Low  time.Duration
	High time.Duration
}

// NewRange builds a normalized Range from two endpoints in either order.
func NewRange(a, b time.Duration) Range {
	if a <= b {
		return Range{Low: a, High: b}
	}
	return Range{Low: b, High: a}
}

// Bound builds the range (min(0,bound), max(0,bound)): shorthand for
// "randomize by up to |bound|", adding for a positive bound and
// subtracting for a negative one, per spec §6.
func Bound(bound time.Duration) Range {
	if bound < 0 {
		return Range{Low: bound, High: 0}
	}
	return Range{Low: 0, High: bound}
}

// Randomized evaluates inner, draws r uniformly from rng, and returns
// inner+r clamped to be non-negative. rng.Low may be negative; rng.Low
// must be <= rng.High (use NewRange or Bound to guarantee this).
func Randomized(inner Policy, rng Range) Policy {
	return Func(func(attempt uint, lastError error) time.Duration {
		base := inner.NextBackoff(attempt, lastError)
		r := drawUniform(rng)
		result := base + r
		if result < 0 {
			return 0
		}
		return result
	})
}

// drawUniform draws a duration uniformly from [rng.Low, rng.High].
func drawUniform(rng Range) time.Duration {
	if rng.Low >= rng.High {
		return rng.Low
	}
	span := float64(rng.High - rng.Low)
	return rng.Low + time.Duration(randFloat64()*span)
}
