package auth

import "errors"

// Token failures. The HTTP layer answers all of them with 403.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrMissingIdentity is returned for claims without an e-mail.
	ErrMissingIdentity = errors.New("token does not contain an email")

	// ErrUnsupportedAlgorithm rejects signing algorithms other than HS256/384/512.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)
