// Package classify attaches a three-way classification to operation errors
// so that a retry driver can decide whether to stop immediately, retry
// loudly, or retry without emitting a retrying event.
package classify

// Classification is the tagged outcome a Classifier attaches to an error.
type Classification int

const (
	// Recoverable means the error is expected to be transient; the driver
	// retries and emits a Retrying event.
	Recoverable Classification = iota
	// Fatal means the error can never succeed on retry; the driver stops
	// immediately and emits an Aborted event.
	Fatal
	// SilentlyRecoverable means the error is expected and noise-level; the
	// driver retries without emitting a Retrying event.
	SilentlyRecoverable
)

func (c Classification) String() string {
	switch c {
	case Fatal:
		return "fatal"
	case SilentlyRecoverable:
		return "silently_recoverable"
	case Recoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}
