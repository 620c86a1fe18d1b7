// Package requestcontext carries per-request metadata through context so
// handlers, services, and audit sinks can correlate their output without
// threading extra parameters everywhere.
package requestcontext

import "context"

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientIP
	keyUserAgent
	keyAdminActor
)

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithClientMetadata stores the client IP and User-Agent extracted by middleware.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, ip)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

// ClientIP returns the client IP, or "" when absent.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

// UserAgent returns the client User-Agent, or "" when absent.
func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithAdminActor stores the authenticated admin identifier for audit attribution.
func WithAdminActor(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, keyAdminActor, adminID)
}

// AdminActor returns the authenticated admin identifier, or "" for
// non-admin requests.
func AdminActor(ctx context.Context) string {
	v, _ := ctx.Value(keyAdminActor).(string)
	return v
}
