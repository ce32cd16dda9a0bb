// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and adapters read them. The package has
// no net/http dependency so the registry service and the CLI can use it directly.
//
// Usage in services (read values):
//
//	requestID := requestcontext.RequestID(ctx)
//	webID := requestcontext.WebID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithRequestID(ctx, "req-1")
package requestcontext

import (
	"context"
	"time"
)

type (
	webIDKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyWebID       = webIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// WebID retrieves the agent WebID the request acts for.
// Returns "" if not set.
func WebID(ctx context.Context) string {
	if webID, ok := ctx.Value(ContextKeyWebID).(string); ok {
		return webID
	}
	return ""
}

// WithWebID injects the acting WebID into the context.
func WithWebID(ctx context.Context, webID string) context.Context {
	return context.WithValue(ctx, ContextKeyWebID, webID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (CLI commands, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
