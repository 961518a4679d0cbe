// Package grpcclassify adapts classify.Classifier to gRPC status codes,
// using the real google.golang.org/grpc/status and codes packages rather
// than a dependency-free heuristic.
package grpcclassify

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aponysus/atmos/classify"
)

// Classifier classifies errors returned from a gRPC client call by their
// status.Code. A nil error classifies Recoverable without consulting
// Fallback. A non-nil error that does not carry a gRPC status
// (status.FromError reports ok=false) falls through to Fallback if one is
// set, or classifies Recoverable otherwise.
type Classifier struct {
	// Fallback classifies errors that do not carry a gRPC status. Nil means
	// such errors classify as Recoverable.
	Fallback classify.Classifier
}

// Classify implements classify.Classifier.
func (c Classifier) Classify(err error) classify.Classification {
	if err == nil {
		return classify.Recoverable
	}

	st, ok := status.FromError(err)
	if !ok {
		if c.Fallback != nil {
			return c.Fallback.Classify(err)
		}
		return classify.Recoverable
	}

	switch st.Code() {
	case codes.OK:
		return classify.Recoverable
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return classify.Recoverable
	case codes.DeadlineExceeded:
		return classify.Recoverable
	case codes.Canceled:
		return classify.Fatal
	default:
		return classify.Fatal
	}
}
