package auth

import (
	"context"
	"time"

	"github.com/phrazzld/scry-tutor/internal/ratelimit"
)

// TokenService issues and validates caller tokens.
type TokenService interface {
	// GenerateToken creates a signed access token for caller, carrying its rate-limit tier.
	GenerateToken(ctx context.Context, caller string, tier ratelimit.Tier) (string, error)

	// ValidateToken checks signature, type and lifetime and returns the claims.
	// Errors are ErrInvalidToken, ErrExpiredToken, ErrTokenNotYetValid or ErrWrongTokenType.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims identify an authenticated caller.
type Claims struct {
	// Caller is the rate-limit key of the token holder.
	Caller string `json:"sub,omitempty"`

	// Tier selects the caller's bucket size and refill rate.
	Tier ratelimit.Tier `json:"tier,omitempty"`

	TokenType string    `json:"type,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
