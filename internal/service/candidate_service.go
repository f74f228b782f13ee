package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jaevor/go-nanoid"
	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/redact"
	"github.com/phrazzld/candidate-api/internal/store"
	"github.com/phrazzld/candidate-api/internal/task"
)

// VerificationTokenLength is the length of generated verification tokens.
// 43 URL-safe characters carry 256 bits of randomness.
const VerificationTokenLength = 43

// CandidateService manages candidates and their e-mail verification.
type CandidateService interface {
	List(ctx context.Context, params store.ListParams) ([]*domain.Candidate, error)

	// Create stores an unverified candidate and queues its verification e-mail.
	// Returns ErrCandidateEmailTaken if the e-mail is in use.
	Create(ctx context.Context, name, email string, experience int) (*domain.Candidate, error)

	Get(ctx context.Context, id string) (*domain.Candidate, error)

	// Update applies the non-nil fields and returns the stored candidate.
	Update(ctx context.Context, id string, update domain.CandidateUpdate) (*domain.Candidate, error)

	Delete(ctx context.Context, id string) error

	// VerifyEmail consumes a verification token.
	// Returns store.ErrVerificationTokenNotFound for unknown or used tokens.
	VerifyEmail(ctx context.Context, token string) error
}

// CandidateServiceImpl implements CandidateService.
type CandidateServiceImpl struct {
	candidates store.CandidateStore
	enqueuer   task.Enqueuer
	reporter   task.ErrorReporter
	newToken   func() string
	backendURL string
	logger     *slog.Logger
}

var _ CandidateService = (*CandidateServiceImpl)(nil)

// NewCandidateService creates a CandidateService. reporter may be nil.
func NewCandidateService(
	candidates store.CandidateStore,
	enqueuer task.Enqueuer,
	reporter task.ErrorReporter,
	backendURL string,
	logger *slog.Logger,
) (*CandidateServiceImpl, error) {
	gen, err := nanoid.Standard(VerificationTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create token generator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CandidateServiceImpl{
		candidates: candidates,
		enqueuer:   enqueuer,
		reporter:   reporter,
		newToken:   gen,
		backendURL: strings.TrimRight(backendURL, "/"),
		logger:     logger.With("component", "candidate_service"),
	}, nil
}

// List implements CandidateService.
func (s *CandidateServiceImpl) List(ctx context.Context, params store.ListParams) ([]*domain.Candidate, error) {
	candidates, err := s.candidates.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// Create implements CandidateService.
func (s *CandidateServiceImpl) Create(
	ctx context.Context,
	name, email string,
	experience int,
) (*domain.Candidate, error) {
	exists, err := s.candidates.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing candidate: %w", err)
	}
	if exists {
		return nil, ErrCandidateEmailTaken
	}

	candidate, err := domain.NewCandidate(name, email, experience, s.newToken())
	if err != nil {
		return nil, err
	}

	if err := s.candidates.Create(ctx, candidate); err != nil {
		if errors.Is(err, store.ErrCandidateEmailExists) {
			return nil, ErrCandidateEmailTaken
		}
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate created", "candidate_id", candidate.ID)
	s.sendVerification(ctx, candidate)
	return candidate, nil
}

// sendVerification queues the verification e-mail. Failures are logged and
// reported but never fail the request that created the candidate.
func (s *CandidateServiceImpl) sendVerification(ctx context.Context, c *domain.Candidate) {
	payload := task.VerificationEmailPayload{
		Email: c.Email,
		Link:  s.VerificationLink(c.VerificationToken),
	}

	jobID, err := s.enqueuer.Enqueue(ctx, task.JobTypeVerificationEmail, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue verification email",
			"candidate_id", c.ID,
			"error", redact.Error(err))
		if s.reporter != nil {
			s.reporter.CaptureError(ctx, fmt.Errorf("enqueue verification email for candidate %s: %w", c.ID, err))
		}
		return
	}

	s.logger.DebugContext(ctx, "verification email queued", "candidate_id", c.ID, "job_id", jobID)
}

// VerificationLink returns the URL a candidate visits to confirm their e-mail.
func (s *CandidateServiceImpl) VerificationLink(token string) string {
	return s.backendURL + "/verify-email?token=" + url.QueryEscape(token)
}

// Get implements CandidateService.
func (s *CandidateServiceImpl) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	candidate, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return candidate, nil
}

// Update implements CandidateService.
func (s *CandidateServiceImpl) Update(
	ctx context.Context,
	id string,
	update domain.CandidateUpdate,
) (*domain.Candidate, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	candidate, err := s.candidates.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrCandidateEmailExists) {
			return nil, ErrCandidateEmailTaken
		}
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}

	s.logger.InfoContext(ctx, "candidate updated", "candidate_id", candidate.ID)
	return candidate, nil
}

// Delete implements CandidateService.
func (s *CandidateServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.candidates.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	s.logger.InfoContext(ctx, "candidate deleted", "candidate_id", id)
	return nil
}

// VerifyEmail implements CandidateService.
func (s *CandidateServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	candidate, err := s.candidates.VerifyByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	s.logger.InfoContext(ctx, "candidate email verified", "candidate_id", candidate.ID)
	return nil
}
