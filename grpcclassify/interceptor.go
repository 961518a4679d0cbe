package grpcclassify

import (
	"context"

	"google.golang.org/grpc"

	"github.com/aponysus/atmos/policy"
	"github.com/aponysus/atmos/retry"
)

// KeyFunc derives a policy name from a fully qualified gRPC method string
// such as "/package.Service/Method".
type KeyFunc func(method string) string

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor that retries
// each call under d using pol. keyFunc derives the name passed to the
// driver (and so to pol's monitor) from the method; if keyFunc is nil, the
// full method string is used as the name.
func UnaryClientInterceptor(d *retry.Driver, pol policy.RetryPolicy, keyFunc KeyFunc) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		name := method
		if keyFunc != nil {
			name = keyFunc(method)
		}
		return d.Do(ctx, name, pol, func(ctx context.Context) error {
			return invoker(ctx, method, req, reply, cc, opts...)
		})
	}
}
