// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	areaID := requestcontext.AreaID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithArea(ctx, 7)
package requestcontext

import (
	"context"
	"time"

	id "tramite/pkg/domain"
)

type (
	userIDKey      struct{}
	areaIDKey      struct{}
	clientIPKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyAreaID      = areaIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Caller identity (asserted by the gateway)
// -----------------------------------------------------------------------------

// UserID returns the caller's user id, or zero when anonymous.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return v
	}
	return 0
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// AreaID returns the caller's active area, or zero when none was asserted.
func AreaID(ctx context.Context) id.AreaID {
	if v, ok := ctx.Value(ContextKeyAreaID).(id.AreaID); ok {
		return v
	}
	return 0
}

// WithArea injects the caller's active area.
func WithArea(ctx context.Context, areaID id.AreaID) context.Context {
	return context.WithValue(ctx, ContextKeyAreaID, areaID)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
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

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Workers use it to keep one "now" across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
