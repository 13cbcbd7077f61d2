package requestctx

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const correlationIDKey ctxKey = "correlation_id"

// WithCorrelationID returns a context carrying id and a request logger
// tagged with it, retrievable with zerolog.Ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, correlationIDKey, id)
	l := log.With().Str("correlation_id", id).Logger()
	return l.WithContext(ctx)
}

// CorrelationID fetches the correlation ID from the context, if any.
func CorrelationID(ctx context.Context) string {
	v := ctx.Value(correlationIDKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Logger returns the request logger, or the global one outside a request.
func Logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
