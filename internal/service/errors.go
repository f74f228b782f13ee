package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// The API layer maps these to HTTP status codes.
var (
	// ErrInvalidCredentials is returned by Login for an unknown e-mail and for a
	// wrong password alike, so callers cannot probe which accounts exist.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailAlreadyRegistered indicates a user account already uses the e-mail.
	// API layer should map this to HTTP 400 Bad Request.
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrCandidateEmailTaken indicates another candidate already uses the e-mail.
	// API layer should map this to HTTP 400 Bad Request.
	ErrCandidateEmailTaken = errors.New("a candidate with this email already exists")
)
