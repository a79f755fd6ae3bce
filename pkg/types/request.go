package types

import "context"

type requestIDKey struct{}

// WithRequestID carries the inbound request id so work done on behalf of the
// request, such as queued events, can be correlated with its log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
