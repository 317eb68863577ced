package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Credentials is the bootstrap login allowed to mint tokens without already
// holding one.
type Credentials struct {
	user string
	hash []byte
}

// NewCredentials checks that hash is a bcrypt hash and pairs it with user.
func NewCredentials(user, hash string) (*Credentials, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("%w: password hash: %v", ErrInvalidInput, err)
	}
	return &Credentials{user: user, hash: []byte(hash)}, nil
}

// User returns the login name.
func (c *Credentials) User() string { return c.user }

// Verify returns ErrInvalidCredentials unless both user and password match.
// The hash comparison runs even for a wrong user.
func (c *Credentials) Verify(user, password string) error {
	pwErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(user)), []byte(c.user)) == 1
	if pwErr != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}
