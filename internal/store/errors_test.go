package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrCandidateNotFound", ErrCandidateNotFound, true},
		{"wrapped ErrVerificationTokenNotFound", fmt.Errorf("verify: %w", ErrVerificationTokenNotFound), true},
		{"duplicate is not not-found", ErrEmailExists, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrEmailExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("create: %w", ErrCandidateEmailExists)))
	assert.False(t, IsDuplicateError(ErrUserNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewStoreError("candidate", "update", "failed to update candidate", inner)

	assert.Equal(t, "update operation on candidate failed: failed to update candidate: connection reset", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewStoreError("user", "create", "invalid data", nil)
	assert.Equal(t, "create operation on user failed: invalid data", bare.Error())
}

func TestListParamsSkip(t *testing.T) {
	assert.Equal(t, int64(0), ListParams{Page: 1, Size: 10}.Skip())
	assert.Equal(t, int64(20), ListParams{Page: 3, Size: 10}.Skip())
	assert.Equal(t, int64(0), ListParams{Page: 0, Size: 10}.Skip())
}
