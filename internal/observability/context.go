package observability

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type correlationKey struct{}

// WithCorrelationID stores the request correlation identifier on ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the identifier stored by WithCorrelationID.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Logger decorates base with the correlation identifier carried by ctx.
func Logger(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return base.With().Str("correlation_id", id).Logger()
	}
	return base
}
