// Package auth hashes passwords and issues the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"spendwise/internal/core"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidatePassword rejects passwords bcrypt cannot hash.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return core.ErrEmptyPassword
	case len(password) > MaxPasswordBytes:
		return core.ErrPasswordTooLong
	}
	return nil
}

// CheckPassword compares password with a stored hash. A mismatch returns
// core.ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	// no stored hash can match an input bcrypt refuses to hash
	if len(password) > MaxPasswordBytes {
		return core.ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return core.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
