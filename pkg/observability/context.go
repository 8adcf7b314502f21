package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Attribute keys shared by logs, metrics and event metadata.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	ActorKey         = "actor"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

type ctxKey int

const (
	correlationIDCtx ctxKey = iota
	requestIDCtx
	actorCtx
)

// carried lists the context values copied onto every log record.
var carried = []struct {
	key  ctxKey
	attr string
}{
	{correlationIDCtx, CorrelationIDKey},
	{requestIDCtx, RequestIDKey},
	{actorCtx, ActorKey},
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, c := range carried {
		if v := stringValue(ctx, c.key); v != "" {
			attrs = append(attrs, slog.String(c.attr, v))
		}
	}
	return attrs
}

// WithCorrelationID stores id, minting a UUID when it is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDCtx, id)
}

func CorrelationIDFromContext(ctx context.Context) string { return stringValue(ctx, correlationIDCtx) }

// WithRequestID stores id, minting a UUID when it is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDCtx, id)
}

func RequestIDFromContext(ctx context.Context) string { return stringValue(ctx, requestIDCtx) }

// WithActor records who is acting: an admin subject, "cli" or "system".
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorCtx, actor)
}

func ActorFromContext(ctx context.Context) string { return stringValue(ctx, actorCtx) }

// NewRequestContext starts a request: a fresh request ID under the given
// correlation ID, or a new one when it is empty.
func NewRequestContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}
