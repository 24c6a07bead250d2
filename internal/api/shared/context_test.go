package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-tutor/internal/ratelimit"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx)

	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters (16 bytes)")
	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc123")
	assert.Equal(t, "abc123", GetTraceID(ctx))
}

func TestGenerateTraceIDUniqueness(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		_, err := hex.DecodeString(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "Expected all trace IDs to be unique")
		seen[id] = true
	}
}

func TestFallbackTraceIDUniqueness(t *testing.T) {
	const iterations = 100
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateFallbackTraceID()
		assert.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		require.NoError(t, err, "Fallback ID must be valid hex")
		assert.False(t, seen[id], "Expected all fallback trace IDs to be unique")
		seen[id] = true
	}
}

func TestCallerFromContext(t *testing.T) {
	_, _, ok := CallerFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithCaller(context.Background(), "student-1", ratelimit.TierHigh)
	caller, tier, ok := CallerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "student-1", caller)
	assert.Equal(t, ratelimit.TierHigh, tier)

	ctx = WithCaller(context.Background(), "", ratelimit.TierHigh)
	_, _, ok = CallerFromContext(ctx)
	assert.False(t, ok, "empty caller is not authenticated")

	ctx = context.WithValue(context.Background(), CallerContextKey, "student-2")
	_, tier, ok = CallerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, ratelimit.TierNormal, tier, "missing tier falls back to normal")
}
