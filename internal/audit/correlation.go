package audit

import (
	"context"

	"github.com/rs/xid"
)

// CorrelationIDHeader is the header carrying the request correlation
// id on both requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

type correlationKey struct{}

// WithCorrelationID attaches the correlation id to the context,
// generating one when the caller supplies none.
func WithCorrelationID(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = xid.New().String()
	}
	return context.WithValue(ctx, correlationKey{}, id), id
}

// CorrelationID retrieves the correlation id from the context.
func CorrelationID(ctx context.Context) string {
	id, ok := ctx.Value(correlationKey{}).(string)
	if !ok {
		return ""
	}
	return id
}
