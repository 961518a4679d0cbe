// Package httpclassify adapts the classify.Classifier and backoff.Policy
// axes to HTTP semantics: status-code ranges, method idempotency, and the
// Retry-After response header.
package httpclassify

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aponysus/atmos/backoff"
	"github.com/aponysus/atmos/classify"
)

// Error is the interface a request error must satisfy for Classifier to
// recognize it. StatusCode 0 denotes a transport-level error (no response
// was received at all).
type Error interface {
	error
	StatusCode() int
	Method() string
	RetryAfter() (time.Duration, bool)
}

// StatusError is the Error Do wraps both transport failures and
// non-2xx responses in.
type StatusError struct {
	Code   int
	Verb   string
	Header http.Header
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "http status " + strconv.Itoa(e.Code)
}

func (e *StatusError) Unwrap() error   { return e.Err }
func (e *StatusError) StatusCode() int { return e.Code }
func (e *StatusError) Method() string  { return e.Verb }

// RetryAfter parses the response's Retry-After header, which may be either
// a delay in seconds or an HTTP date.
func (e *StatusError) RetryAfter() (time.Duration, bool) {
	if e.Header == nil {
		return 0, false
	}
	s := e.Header.Get("Retry-After")
	if s == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(s); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// Classifier classifies errors produced by an HTTP round trip. Errors that
// do not implement Error fall back to Recoverable, per classify.Classifier's
// contract for errors a classifier does not recognize; a request that times
// out client-side (context.DeadlineExceeded) is wrapped as a status-0
// transport error by Do, so it is classified the same way any other
// connection failure is: Recoverable for idempotent methods, Fatal
// otherwise.
type Classifier struct {
	// Retryable4xx names additional 4xx statuses to treat as retryable
	// beyond the built-in 408 and 429. Nil means none.
	Retryable4xx map[int]struct{}
}

// Classify implements classify.Classifier.
func (c Classifier) Classify(err error) classify.Classification {
	if err == nil {
		return classify.Recoverable
	}
	if errors.Is(err, context.Canceled) {
		return classify.Fatal
	}

	he, ok := asHTTPError(err)
	if !ok {
		return classify.Recoverable
	}

	status := he.StatusCode()
	method := strings.ToUpper(strings.TrimSpace(he.Method()))
	if method == "" {
		// net/http.Transport treats an empty Method as GET at send time
		// without writing it back onto the request.
		method = http.MethodGet
	}
	idempotent := isIdempotentMethod(method)

	switch {
	case status >= 200 && status < 300:
		return classify.Recoverable
	case status == 0:
		if idempotent {
			return classify.Recoverable
		}
		return classify.Fatal
	case status >= 500 && status <= 599:
		if idempotent {
			return classify.Recoverable
		}
		return classify.Fatal
	case status == 408 || status == 429 || c.retryable4xx(status):
		if idempotent {
			return classify.Recoverable
		}
		return classify.Fatal
	default:
		return classify.Fatal
	}
}

func (c Classifier) retryable4xx(status int) bool {
	if c.Retryable4xx == nil {
		return false
	}
	_, ok := c.Retryable4xx[status]
	return ok
}

func isIdempotentMethod(method string) bool {
	switch method {
	case "GET", "HEAD", "PUT", "DELETE", "OPTIONS", "TRACE":
		return true
	default:
		return false
	}
}

func asHTTPError(err error) (Error, bool) {
	var he Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// RespectRetryAfter wraps inner so that any attempt failing with an Error
// that carries a positive Retry-After hint waits exactly that long instead
// of whatever inner would have computed; attempts whose error has no
// Retry-After fall back to inner unchanged.
func RespectRetryAfter(inner backoff.Policy) backoff.Policy {
	return backoff.Selected(func(lastError error) backoff.Policy {
		if he, ok := asHTTPError(lastError); ok {
			if d, ok := he.RetryAfter(); ok && d > 0 {
				return backoff.Constant(d)
			}
		}
		return inner
	})
}
