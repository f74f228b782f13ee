package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/service/auth"
	"github.com/phrazzld/candidate-api/internal/store"
)

// TokenTypeBearer is the token_type returned with every access token.
const TokenTypeBearer = "bearer"

// TokenPair is the credential returned by Register and Login.
type TokenPair struct {
	AccessToken string
	TokenType   string
}

// UserService provides account registration and login.
type UserService interface {
	// Register creates an account and returns an access token for it.
	// Returns ErrEmailAlreadyRegistered if the e-mail is taken.
	Register(ctx context.Context, email, password string) (*TokenPair, error)

	// Login checks the credentials and returns a fresh access token.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, email, password string) (*TokenPair, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	tokens    auth.TokenService
	hasher    auth.PasswordHasher
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	tokens auth.TokenService,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		tokens:    tokens,
		hasher:    hasher,
		logger:    logger.With("component", "user_service"),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	exists, err := s.userStore.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		s.logger.DebugContext(ctx, "registration rejected: email already registered")
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		// A concurrent registration won the race on the unique index.
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Login implements UserService.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to retrieve user: %w", err)
		}
		// Spend the same bcrypt work as a real comparison.
		_ = s.hasher.Compare(s.dummy(), password)
		s.logger.DebugContext(ctx, "login rejected: unknown email")
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.WarnContext(ctx, "stored password hash could not be compared",
				"user_id", user.ID, "error", err)
		}
		s.logger.DebugContext(ctx, "login rejected: password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *UserServiceImpl) issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	token, err := s.tokens.GenerateToken(ctx, domain.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &TokenPair{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// fallbackDummyHash is a valid bcrypt hash at bcrypt.DefaultCost, used when
// the configured hasher cannot produce one.
const fallbackDummyHash = "$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga"

// dummy returns a hash for unknown-email logins, computed once at the
// configured cost.
func (s *UserServiceImpl) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil || hash == "" {
			s.logger.Warn("failed to compute dummy password hash, using default-cost fallback", "error", err)
			hash = fallbackDummyHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
