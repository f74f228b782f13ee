package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/service/auth"
	"github.com/stretchr/testify/mock"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	GenerateTokenFn func(ctx context.Context, identity domain.Identity, ttl time.Duration) (string, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	Err         error
	Claims      *auth.Claims
	ValidateErr error
}

var _ auth.TokenService = (*MockTokenService)(nil)

// GenerateToken implements auth.TokenService
func (m *MockTokenService) GenerateToken(ctx context.Context, identity domain.Identity) (string, error) {
	return m.GenerateTokenWithTTL(ctx, identity, 0)
}

// GenerateTokenWithTTL implements auth.TokenService
func (m *MockTokenService) GenerateTokenWithTTL(
	ctx context.Context,
	identity domain.Identity,
	ttl time.Duration,
) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, identity, ttl)
	}
	return m.Token, m.Err
}

// ValidateToken implements auth.TokenService
func (m *MockTokenService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}

// TestifyMockPasswordHasher is a mock of auth.PasswordHasher for use with testify/mock
type TestifyMockPasswordHasher struct {
	mock.Mock
}

var _ auth.PasswordHasher = (*TestifyMockPasswordHasher)(nil)

// Hash is a mock implementation of auth.PasswordHasher.Hash
func (m *TestifyMockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Compare is a mock implementation of auth.PasswordHasher.Compare
func (m *TestifyMockPasswordHasher) Compare(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}
