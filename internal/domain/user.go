package domain

import (
	"strings"
	"time"
)

// User is an API account. Users authenticate with e-mail and password and
// manage candidates; they are never updated or deleted.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a new User with the given e-mail and bcrypt hash.
// The ID is assigned by the store on insert.
func NewUser(email, hashedPassword string) (*User, error) {
	user := &User{
		Email:          strings.TrimSpace(email),
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	return nil
}

// Identity is the verified principal carried by a bearer token.
type Identity struct {
	UserID string
	Email  string
}
