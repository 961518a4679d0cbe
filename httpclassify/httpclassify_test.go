package httpclassify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aponysus/atmos/backoff"
	"github.com/aponysus/atmos/classify"
	"github.com/aponysus/atmos/policy"
	"github.com/aponysus/atmos/retry"
)

func TestClassifier_Status(t *testing.T) {
	c := Classifier{}

	cases := []struct {
		name   string
		err    error
		status int
		method string
		want   classify.Classification
	}{
		{"success", nil, 0, "GET", classify.Recoverable},
		{"5xx idempotent", &StatusError{Code: 503, Verb: "GET"}, 503, "GET", classify.Recoverable},
		{"5xx non-idempotent", &StatusError{Code: 503, Verb: "POST"}, 503, "POST", classify.Fatal},
		{"429 idempotent", &StatusError{Code: 429, Verb: "PUT"}, 429, "PUT", classify.Recoverable},
		{"404 non-idempotent-irrelevant", &StatusError{Code: 404, Verb: "GET"}, 404, "GET", classify.Fatal},
		{"transport error idempotent", &StatusError{Verb: "GET"}, 0, "GET", classify.Recoverable},
		{"transport error non-idempotent", &StatusError{Verb: "POST"}, 0, "POST", classify.Fatal},
		{"empty method defaults to GET", &StatusError{Code: 503, Verb: ""}, 503, "", classify.Recoverable},
		{"unrecognized error", someOtherErr{}, 0, "", classify.Recoverable},
		{"client timeout idempotent", &StatusError{Verb: "GET", Err: context.DeadlineExceeded}, 0, "GET", classify.Recoverable},
		{"client timeout non-idempotent", &StatusError{Verb: "POST", Err: context.DeadlineExceeded}, 0, "POST", classify.Fatal},
		{"ctx canceled", &StatusError{Verb: "GET", Err: context.Canceled}, 0, "GET", classify.Fatal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.err)
			if got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifier_RetryableExtra4xx(t *testing.T) {
	c := Classifier{Retryable4xx: map[int]struct{}{418: {}}}
	got := c.Classify(&StatusError{Code: 418, Verb: "GET"})
	if got != classify.Recoverable {
		t.Fatalf("Classify(418) = %v, want Recoverable with Retryable4xx override", got)
	}
}

type someOtherErr struct{}

func (someOtherErr) Error() string { return "boom" }

func TestStatusError_RetryAfterSeconds(t *testing.T) {
	e := &StatusError{Header: http.Header{"Retry-After": []string{"5"}}}
	d, ok := e.RetryAfter()
	if !ok || d != 5*time.Second {
		t.Fatalf("RetryAfter() = (%v, %v), want (5s, true)", d, ok)
	}
}

func TestStatusError_RetryAfterMissing(t *testing.T) {
	e := &StatusError{}
	_, ok := e.RetryAfter()
	if ok {
		t.Fatal("expected no Retry-After without a header")
	}
}

func TestStatusError_RetryAfterDate(t *testing.T) {
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	e := &StatusError{Header: http.Header{"Retry-After": []string{future}}}
	d, ok := e.RetryAfter()
	if !ok || d <= 0 {
		t.Fatalf("RetryAfter() = (%v, %v), want a positive duration", d, ok)
	}
}

func TestRespectRetryAfter_OverridesWhenPresent(t *testing.T) {
	inner := backoff.Constant(50 * time.Millisecond)
	pol := RespectRetryAfter(inner)

	withHeader := &StatusError{Code: 429, Header: http.Header{"Retry-After": []string{"2"}}}
	if got := pol.NextBackoff(1, withHeader); got != 2*time.Second {
		t.Fatalf("NextBackoff with Retry-After = %v, want 2s", got)
	}
}

func TestRespectRetryAfter_FallsBackWithoutHeader(t *testing.T) {
	inner := backoff.Constant(50 * time.Millisecond)
	pol := RespectRetryAfter(inner)

	noHeader := &StatusError{Code: 503}
	if got := pol.NextBackoff(1, noHeader); got != 50*time.Millisecond {
		t.Fatalf("NextBackoff without Retry-After = %v, want inner's 50ms", got)
	}

	if got := pol.NextBackoff(1, someOtherErr{}); got != 50*time.Millisecond {
		t.Fatalf("NextBackoff for non-HTTP error = %v, want inner's 50ms", got)
	}
}

func TestDo_RetriesOn503ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	pol := policy.Default().WithClassifier(Classifier{})
	d := retry.NewDriver()

	resp, err := Do(context.Background(), d, "ping", pol, srv.Client(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDo_NonIdempotentFailureIsFatal(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	pol := policy.Default().WithClassifier(Classifier{})
	d := retry.NewDriver()

	_, err = Do(context.Background(), d, "post", pol, srv.Client(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (non-idempotent POST must not retry)", attempts)
	}
}

func TestDo_RejectsUnreplayableBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.invalid", bodyReaderWithoutGetBody{})
	req.GetBody = nil

	pol := policy.Default()
	d := retry.NewDriver()

	_, err := Do(context.Background(), d, "post", pol, http.DefaultClient, req)
	if err == nil {
		t.Fatal("expected an error for a non-replayable body")
	}
}

type bodyReaderWithoutGetBody struct{}

func (bodyReaderWithoutGetBody) Read([]byte) (int, error) { return 0, nil }
