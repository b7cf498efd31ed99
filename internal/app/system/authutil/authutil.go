// Package authutil provides password hashing and validation helpers.
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password policy bounds. The upper bound exists because bcrypt only
// considers the first 72 bytes of input.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords are rejected outright regardless of length.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"letmein123": {},
	"iloveyou1":  {},
}

// ValidatePassword checks a candidate password against the policy.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(password)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules returns the policy as a sentence for client display.
func PasswordRules() string {
	return fmt.Sprintf("Password must be %d-%d characters and not a common password.",
		MinPasswordLength, MaxPasswordLength)
}

// HashPassword produces a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// bcrypt's comparison is constant-time; mismatch and invalid hash both
// read as false so callers can't distinguish them.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
