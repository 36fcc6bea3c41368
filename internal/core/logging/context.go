package logging

import "context"

type requestKey struct{}

// Request is the per-request data stamped on log events.
type Request struct {
	ID         string
	RemoteAddr string
}

// WithRequest stores req in ctx.
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFrom returns the Request stored in ctx, if any.
func RequestFrom(ctx context.Context) (Request, bool) {
	req, ok := ctx.Value(requestKey{}).(Request)
	return req, ok
}
