// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 8
	// MaxLength is bcrypt's input limit.
	MaxLength = 72
)

var ErrInvalidLength = errors.New("password must be between 8 and 72 characters")

func Hash(plain string) (string, error) {
	if len(plain) < MinLength || len(plain) > MaxLength {
		return "", ErrInvalidLength
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns nil when plain matches hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
