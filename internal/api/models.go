package api

import (
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateCandidateRequest defines the payload for POST /candidate.
// A missing experience is treated as zero.
type CreateCandidateRequest struct {
	Name       string `json:"name"       validate:"required"`
	Email      string `json:"email"      validate:"required,email"`
	Experience *int   `json:"experience" validate:"omitempty,gte=0"`
}

// UpdateCandidateRequest defines the payload for PUT /candidate/{id}.
// Omitted or null fields are left unchanged.
type UpdateCandidateRequest struct {
	Name       *string `json:"name"       validate:"omitempty,min=1"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	Experience *int    `json:"experience" validate:"omitempty,gte=0"`
}

// ToDomain converts the request into a partial domain update.
func (r UpdateCandidateRequest) ToDomain() domain.CandidateUpdate {
	return domain.CandidateUpdate{
		Name:       r.Name,
		Email:      r.Email,
		Experience: r.Experience,
	}
}

// ListCandidatesQuery holds the parsed query of GET /all-candidates.
type ListCandidatesQuery struct {
	Search string `json:"search" validate:"omitempty,min=3"`
	Page   int    `json:"page"   validate:"gte=1"`
	Size   int    `json:"size"   validate:"gte=1,lte=100"`
}

// CandidateResponse is the public representation of a candidate.
// The verification token is never exposed.
type CandidateResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Experience int       `json:"experience"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReportResponse is returned by GET /send-report.
type ReportResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func candidateToResponse(c *domain.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Experience: c.Experience,
		IsVerified: c.IsVerified,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func candidatesToResponse(list []*domain.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(list))
	for _, c := range list {
		out = append(out, candidateToResponse(c))
	}
	return out
}
