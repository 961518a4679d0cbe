// Package policy defines RetryPolicy, the immutable configuration record
// a retry driver executes against.
package policy

import (
	"github.com/aponysus/atmos/backoff"
	"github.com/aponysus/atmos/classify"
	"github.com/aponysus/atmos/monitor"
	"github.com/aponysus/atmos/termination"
)

// RetryPolicy bundles the four composable axes of a retry. It is deeply
// immutable: every With* method returns a new value rather than mutating
// the receiver, following the teacher's copy-with-replacement idiom for
// its own EffectivePolicy normalization.
type RetryPolicy struct {
	termination termination.Policy
	backoff     backoff.Policy
	monitor     monitor.Monitor
	classifier  classify.Classifier
}

// Termination returns the policy's termination axis.
func (p RetryPolicy) Termination() termination.Policy { return p.termination }

// Backoff returns the policy's backoff axis.
func (p RetryPolicy) Backoff() backoff.Policy { return p.backoff }

// Monitor returns the policy's event monitor axis.
func (p RetryPolicy) Monitor() monitor.Monitor { return p.monitor }

// Classifier returns the policy's error classifier axis.
func (p RetryPolicy) Classifier() classify.Classifier { return p.classifier }

// WithTermination returns a copy of p with its termination policy replaced.
func (p RetryPolicy) WithTermination(t termination.Policy) RetryPolicy {
	p.termination = t
	return p
}

// WithBackoff returns a copy of p with its backoff policy replaced.
func (p RetryPolicy) WithBackoff(b backoff.Policy) RetryPolicy {
	p.backoff = b
	return p
}

// WithMonitor returns a copy of p with its event monitor replaced.
func (p RetryPolicy) WithMonitor(m monitor.Monitor) RetryPolicy {
	p.monitor = m
	return p
}

// WithClassifier returns a copy of p with its error classifier replaced.
func (p RetryPolicy) WithClassifier(c classify.Classifier) RetryPolicy {
	p.classifier = c
	return p
}

// Default returns the default RetryPolicy: LimitNumberOfAttempts(3),
// Fibonacci(100ms), a no-op monitor, and the always-Recoverable classifier.
func Default() RetryPolicy {
	return RetryPolicy{
		termination: termination.Default,
		backoff:     backoff.Fibonacci(backoff.DefaultBase),
		monitor:     monitor.Noop,
		classifier:  classify.Default,
	}
}

// NeverRetry returns a policy whose termination is ImmediatelyTerminate:
// the operation still runs once, but any failure is terminal.
func NeverRetry() RetryPolicy {
	return Default().WithTermination(termination.ImmediatelyTerminate())
}

// RetryForever returns a policy whose termination is NeverTerminate:
// termination comes only from a Fatal classification.
func RetryForever() RetryPolicy {
	return Default().WithTermination(termination.NeverTerminate())
}

// FromTermination returns the default policy with its termination policy
// replaced by t.
func FromTermination(t termination.Policy) RetryPolicy {
	return Default().WithTermination(t)
}
