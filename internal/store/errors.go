package store

import (
	"errors"
	"fmt"
)

// Generic failures. Entity-specific errors below wrap one of these so callers
// can match either level with errors.Is.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity wraps a domain validation failure detected at write time.
	ErrInvalidEntity = errors.New("invalid entity")
)

var (
	ErrUserNotFound      = fmt.Errorf("%w: user", ErrNotFound)
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)

	// ErrVerificationTokenNotFound means no unverified candidate holds the token.
	ErrVerificationTokenNotFound = fmt.Errorf("%w: verification token", ErrNotFound)

	ErrEmailExists          = fmt.Errorf("%w: email", ErrDuplicate)
	ErrCandidateEmailExists = fmt.Errorf("%w: candidate email", ErrDuplicate)
)

// IsNotFoundError reports whether err is any not-found error.
func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateError reports whether err is any uniqueness violation.
func IsDuplicateError(err error) bool { return errors.Is(err, ErrDuplicate) }

// StoreError adds the entity and operation to a persistence failure.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError builds a StoreError. err may be nil.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
