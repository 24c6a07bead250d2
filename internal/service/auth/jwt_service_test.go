package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func testConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}
}

func newTestService(t *testing.T, now *time.Time) *hmacJWTService {
	t.Helper()
	s, err := newJWTService(testConfig(), func() time.Time { return *now })
	require.NoError(t, err)
	return s
}

func TestNewJWTServiceValidatesConfig(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	s, err := NewJWTService(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestGenerateAndValidate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(t, &now)
	ctx := context.Background()

	token, err := s.GenerateToken(ctx, "student-42", ratelimit.TierHigh)
	require.NoError(t, err)

	claims, err := s.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "student-42", claims.Caller)
	assert.Equal(t, ratelimit.TierHigh, claims.Tier)
	assert.Equal(t, "access", claims.TokenType)
	assert.True(t, now.Equal(claims.IssuedAt), "issued at %v, want %v", claims.IssuedAt, now)
	assert.True(t, now.Add(time.Hour).Equal(claims.ExpiresAt), "expires at %v", claims.ExpiresAt)
	assert.Equal(t, time.UTC, claims.IssuedAt.Location(), "claim times are reported in UTC")
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateNormalizesTier(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(t, &now)
	ctx := context.Background()

	token, err := s.GenerateToken(ctx, "c", ratelimit.Tier("platinum"))
	require.NoError(t, err)

	claims, err := s.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ratelimit.TierNormal, claims.Tier)
}

func TestGenerateRequiresCaller(t *testing.T) {
	now := time.Now()
	s := newTestService(t, &now)

	_, err := s.GenerateToken(context.Background(), "  ", ratelimit.TierLow)
	assert.ErrorIs(t, err, ErrMissingCaller)
}

func TestValidateTokenErrors(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(t, &now)
	ctx := context.Background()

	token, err := s.GenerateToken(ctx, "c", ratelimit.TierLow)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := now.Add(2 * time.Hour)
		expired := newTestService(t, &later)
		_, err := expired.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("within clock skew", func(t *testing.T) {
		later := now.Add(time.Hour + time.Minute)
		skewed := newTestService(t, &later)
		_, err := skewed.ValidateToken(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := s.ValidateToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := newJWTService(config.AuthConfig{
			JWTSecret:            "another-secret-that-is-at-least-32-chars",
			TokenLifetimeMinutes: 60,
		}, func() time.Time { return now })
		require.NoError(t, err)
		_, err = other.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong type", func(t *testing.T) {
		refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
			Tier:      "low",
			TokenType: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "c",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		signed, err := refresh.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = s.ValidateToken(ctx, signed)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("unsigned", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwtCustomClaims{TokenType: "access"})
		signed, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = s.ValidateToken(ctx, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
