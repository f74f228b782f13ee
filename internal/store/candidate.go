package store

import (
	"context"

	"github.com/phrazzld/candidate-api/internal/domain"
)

// ListParams selects a page of candidates.
type ListParams struct {
	// Search, when non-empty, restricts results to a full-text match over
	// the indexed candidate fields.
	Search string
	// Page is 1-based.
	Page int
	Size int
}

// Skip returns the number of records preceding the requested page.
func (p ListParams) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64(p.Page-1) * int64(p.Size)
}

// CandidateStore defines the interface for candidate data persistence.
type CandidateStore interface {
	// List returns one page of candidates in insertion order.
	List(ctx context.Context, params ListParams) ([]*domain.Candidate, error)

	// Create saves a new candidate and sets its ID.
	// Returns ErrCandidateEmailExists if the email is already taken.
	Create(ctx context.Context, candidate *domain.Candidate) error

	// GetByID retrieves a candidate.
	// Returns ErrCandidateNotFound if absent or if id is malformed.
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)

	// ExistsByEmail reports whether a candidate with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update applies the non-nil fields of update and returns the stored result.
	// Returns ErrCandidateNotFound if no record matched.
	Update(ctx context.Context, id string, update domain.CandidateUpdate) (*domain.Candidate, error)

	// Delete removes a candidate.
	// Returns ErrCandidateNotFound if no record matched.
	Delete(ctx context.Context, id string) error

	// VerifyByToken atomically marks the unverified candidate holding token as
	// verified and clears the token.
	// Returns ErrVerificationTokenNotFound if no unverified candidate holds it.
	VerifyByToken(ctx context.Context, token string) (*domain.Candidate, error)

	// Each streams every candidate to fn, fetching batchSize records per round trip.
	// Iteration stops at the first error returned by fn.
	Each(ctx context.Context, batchSize int, fn func(*domain.Candidate) error) error
}
