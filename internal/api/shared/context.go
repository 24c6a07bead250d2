package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/scry-tutor/internal/ratelimit"
)

// ContextKey is the type of request-scoped values set by the API middleware.
type ContextKey string

// Context keys for various values
const (
	// CallerContextKey holds the authenticated caller id.
	CallerContextKey ContextKey = "caller"

	// TierContextKey holds the caller's rate-limit tier.
	TierContextKey ContextKey = "tier"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// fallbackSeq separates fallback ids generated within the same nanosecond.
var fallbackSeq atomic.Uint32

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID stores an existing trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithCaller stores the authenticated caller and tier in the context.
func WithCaller(ctx context.Context, caller string, tier ratelimit.Tier) context.Context {
	ctx = context.WithValue(ctx, CallerContextKey, caller)
	return context.WithValue(ctx, TierContextKey, tier)
}

// CallerFromContext returns the caller id and tier set by the auth middleware.
// ok is false when no caller is present.
func CallerFromContext(ctx context.Context) (caller string, tier ratelimit.Tier, ok bool) {
	caller, ok = ctx.Value(CallerContextKey).(string)
	if !ok || caller == "" {
		return "", "", false
	}
	tier, _ = ctx.Value(TierContextKey).(ratelimit.Tier)
	return caller, ratelimit.ParseTier(string(tier)), true
}

// generateTraceID creates a random 32-character hex trace ID.
// If crypto/rand fails it falls back to a time-based id, never a static value.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)

	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"bytes_requested", TraceIDLength,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}

	return hex.EncodeToString(b)
}

// generateFallbackTraceID builds an id from the clock and a process-wide sequence.
func generateFallbackTraceID() string {
	id := make([]byte, TraceIDLength)
	now := time.Now()
	binary.BigEndian.PutUint64(id[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(id[8:12], fallbackSeq.Add(1))
	binary.BigEndian.PutUint32(id[12:16], uint32(now.Unix()))
	return hex.EncodeToString(id)
}
