package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/phrazzld/candidate-api/internal/api/shared"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/redact"
	"github.com/phrazzld/candidate-api/internal/service/auth"
)

// Messages returned by the auth gate. Every rejection uses 403.
const (
	MsgAuthHeaderMissing = "Authorization header missing"
	MsgInvalidScheme     = "Invalid authentication scheme"
	MsgInvalidToken      = "Invalid token"
	MsgMissingEmail      = "Token does not contain an email"
)

// AuthGate requires a valid bearer token on every request whose path matches
// one of the secure path patterns. Other requests pass through untouched.
type AuthGate struct {
	tokens   auth.TokenService
	patterns []*regexp.Regexp
}

// NewAuthGate compiles the secure path patterns.
func NewAuthGate(tokens auth.TokenService, securePaths []string) (*AuthGate, error) {
	patterns := make([]*regexp.Regexp, 0, len(securePaths))
	for _, p := range securePaths {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid secure path pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &AuthGate{tokens: tokens, patterns: patterns}, nil
}

// IsSecure reports whether path requires authentication.
func (g *AuthGate) IsSecure(path string) bool {
	for _, re := range g.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Authenticate validates the bearer token on secure paths and attaches the
// caller identity to the request context.
func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.IsSecure(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusForbidden, MsgAuthHeaderMissing)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 {
			shared.RespondWithError(w, r, http.StatusForbidden, MsgInvalidToken)
			return
		}
		if !strings.EqualFold(parts[0], "bearer") {
			shared.RespondWithError(w, r, http.StatusForbidden, MsgInvalidScheme)
			return
		}

		claims, err := g.tokens.ValidateToken(r.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) &&
				!errors.Is(err, auth.ErrExpiredToken) &&
				!errors.Is(err, auth.ErrTokenNotYetValid) &&
				!errors.Is(err, auth.ErrMissingToken) {
				log.Warn("unexpected token validation failure", slog.String("error", redact.Error(err)))
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, MsgInvalidToken, err)
			return
		}

		identity, err := claims.Identity()
		if err != nil {
			// A correctly signed token without an e-mail points at the issuer.
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, MsgMissingEmail, err,
				shared.WithElevatedLogLevel())
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithIdentity(r.Context(), identity)))
	})
}
