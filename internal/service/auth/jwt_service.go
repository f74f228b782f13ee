package auth

import (
	"context"
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
)

// TokenService defines operations for issuing and checking bearer tokens.
type TokenService interface {
	// GenerateToken creates a signed access token for the identity using the
	// configured lifetime.
	GenerateToken(ctx context.Context, identity domain.Identity) (string, error)

	// GenerateTokenWithTTL creates a signed access token that expires ttl from now.
	GenerateTokenWithTTL(ctx context.Context, identity domain.Identity, ttl time.Duration) (string, error)

	// ValidateToken verifies signature and expiry and returns the claims.
	// Returns ErrExpiredToken for expired tokens and ErrInvalidToken for any
	// other failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded content of a valid token.
type Claims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// Identity returns the caller identity carried by the claims.
// Returns ErrMissingIdentity when the e-mail claim is empty.
func (c *Claims) Identity() (domain.Identity, error) {
	if c == nil || c.Email == "" {
		return domain.Identity{}, ErrMissingIdentity
	}
	return domain.Identity{UserID: c.UserID, Email: c.Email}, nil
}
