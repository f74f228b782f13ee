package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser(" test@example.com ", "$2a$10$hash")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "$2a$10$hash", user.HashedPassword)
	assert.Empty(t, user.ID, "ID is assigned by the store")
	assert.False(t, user.CreatedAt.IsZero())

	_, err = NewUser("", "$2a$10$hash")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = NewUser("invalidemail", "$2a$10$hash")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("test@example.com", "")
	assert.ErrorIs(t, err, ErrEmptyHashedPassword)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateEmailFormat(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"john@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"john@localhost", false},
		{"john@.com", false},
		{"john@example.", false},
		{"@example.com", false},
		{"John Doe <john@example.com>", false},
		{"not-an-email", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, validateEmailFormat(tt.email))
		})
	}
}
