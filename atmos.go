// Package atmos provides package-level convenience wrappers around a
// shared default retry.Driver and policy.RetryPolicy, for callers that do
// not need to manage their own Driver instance.
package atmos

import (
	"context"
	"log"
	"sync"

	"github.com/aponysus/atmos/policy"
	"github.com/aponysus/atmos/retry"
)

var (
	globalDriver *retry.Driver
	globalPolicy policy.RetryPolicy
	globalOnce   sync.Once
)

// Init configures the global driver and default policy used by Do and
// DoValue. It must be called before either is used; calling it again after
// the globals are already initialized logs a warning and does nothing,
// matching the teacher's startup-only SetGlobal semantics.
//
// globalOnce itself is the single source of truth for "did this call
// configure the globals", rather than a separate check-then-act flag: a
// flag checked before Do and set inside it leaves a window where a
// concurrent first use (DefaultDriver) can win the race to set the
// globals while Init's check still observes "not yet initialized",
// silently dropping Init's driver/policy with no warning logged.
func Init(d *retry.Driver, pol policy.RetryPolicy) {
	if d == nil {
		d = retry.Default
	}
	applied := false
	globalOnce.Do(func() {
		globalDriver = d
		globalPolicy = pol
		applied = true
	})
	if !applied {
		log.Printf("atmos: Init called after global driver already initialized; ignoring.")
	}
}

// DefaultDriver returns the shared, lazily initialized global Driver. If
// Init has not been called, it falls back to retry.Default.
func DefaultDriver() *retry.Driver {
	globalOnce.Do(func() {
		globalDriver = retry.Default
		globalPolicy = policy.Default()
	})
	return globalDriver
}

// DefaultPolicy returns the shared, lazily initialized global RetryPolicy.
func DefaultPolicy() policy.RetryPolicy {
	DefaultDriver()
	return globalPolicy
}

// Do runs op against the global driver and default policy.
func Do(ctx context.Context, name string, op retry.Operation) error {
	return DefaultDriver().Do(ctx, name, DefaultPolicy(), op)
}

// DoValue runs op against the global driver and default policy, returning
// the value op produced on success.
func DoValue[T any](ctx context.Context, name string, op retry.OperationValue[T]) (T, error) {
	return retry.DoValue(ctx, DefaultDriver(), name, DefaultPolicy(), op)
}
