package mocks

import (
	"context"

	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
)

// MockJWTService implements auth.TokenService for testing
type MockJWTService struct {
	// GenerateTokenFn allows test cases to mock the GenerateToken behavior
	GenerateTokenFn func(ctx context.Context, caller string, tier ratelimit.Tier) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	Err         error
	ValidateErr error
	Claims      *auth.Claims
}

var _ auth.TokenService = (*MockJWTService)(nil)

// GenerateToken implements the auth.TokenService interface
func (m *MockJWTService) GenerateToken(ctx context.Context, caller string, tier ratelimit.Tier) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, caller, tier)
	}
	return m.Token, m.Err
}

// ValidateToken implements the auth.TokenService interface
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
