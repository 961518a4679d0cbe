package httpclassify

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aponysus/atmos/policy"
	"github.com/aponysus/atmos/retry"
)

// drainLimit caps how much of a failed response's body Do reads before
// closing it.
const drainLimit = 1 << 20 // 1 MiB

// Do executes req using client, retrying under pol via d. The request must
// be replayable: if req has a body, req.GetBody must be set (as
// http.NewRequestWithContext populates it automatically for []byte,
// *bytes.Reader, and *strings.Reader bodies), since each attempt clones the
// request and re-reads the body from scratch.
//
// On a non-2xx response the body is drained (up to drainLimit) and closed
// before the driver retries, since net/http only returns a connection to
// the client's pool once a response body has been read to EOF. Bodies
// larger than drainLimit forfeit connection reuse for that one response
// rather than risk an attempt blocking forever on a slow or unbounded
// error body.
func Do(ctx context.Context, d *retry.Driver, name string, pol policy.RetryPolicy, client *http.Client, req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, errors.New("httpclassify: request body is not replayable (GetBody is nil)")
	}

	op := func(ctx context.Context) (*http.Response, error) {
		outReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			outReq.Body = body
		}

		resp, err := client.Do(outReq)
		if err != nil {
			return nil, &StatusError{Err: err, Verb: req.Method}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		resp.Body.Close()

		return nil, &StatusError{Code: resp.StatusCode, Verb: req.Method, Header: resp.Header}
	}

	return retry.DoValue(ctx, d, name, pol, op)
}
