package domain

import (
	"strings"
	"time"
)

// Candidate is a person tracked by the system. A candidate starts unverified
// with a single-use verification token that is cleared once the e-mail
// address has been confirmed.
type Candidate struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Experience        int       `json:"experience"`
	IsVerified        bool      `json:"is_verified"`
	VerificationToken string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewCandidate creates an unverified candidate holding the given token.
func NewCandidate(name, email string, experience int, token string) (*Candidate, error) {
	now := time.Now().UTC()
	c := &Candidate{
		Name:              strings.TrimSpace(name),
		Email:             strings.TrimSpace(email),
		Experience:        experience,
		IsVerified:        false,
		VerificationToken: token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.VerificationToken == "" {
		return nil, ErrEmptyToken
	}

	return c, nil
}

// Validate checks the invariants that hold for every stored candidate.
func (c *Candidate) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(c.Email) {
		return ErrInvalidEmail
	}
	if c.Experience < 0 {
		return ErrNegativeExperience
	}
	return nil
}

// CandidateUpdate is a partial update. Nil fields are left untouched.
type CandidateUpdate struct {
	Name       *string
	Email      *string
	Experience *int
}

// IsEmpty reports whether the update carries no fields.
func (u CandidateUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Experience == nil
}

// Validate checks every supplied field.
func (u CandidateUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrEmptyName
	}
	if u.Email != nil {
		if *u.Email == "" {
			return ErrEmptyEmail
		}
		if !validateEmailFormat(*u.Email) {
			return ErrInvalidEmail
		}
	}
	if u.Experience != nil && *u.Experience < 0 {
		return ErrNegativeExperience
	}
	return nil
}

// Apply copies the supplied fields onto c.
func (u CandidateUpdate) Apply(c *Candidate) {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Experience != nil {
		c.Experience = *u.Experience
	}
}
