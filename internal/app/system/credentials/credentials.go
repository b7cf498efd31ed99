// Package credentials resolves login material to a principal. Each
// strategy covers one way of proving who you are; all of them answer
// with a user record or an error, never with an HTTP response.
package credentials

import (
	"context"
	"errors"

	"github.com/dalemusser/workhive/internal/domain/models"
)

var (
	// ErrInvalidCredentials covers every password failure mode.
	// Unknown email, wrong provider, and wrong password are
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized covers bearer failures past the parse stage.
	ErrUnauthorized = errors.New("unauthorized")
)

// Credentials carries the material for one resolution attempt. Only
// the fields a given strategy reads need to be set.
type Credentials struct {
	Email    string
	Password string

	// Verified Google profile, set by the OAuth callback.
	Google *GoogleProfile

	// Raw bearer token.
	Token string
}

// GoogleProfile is the identity Google vouched for during OAuth.
type GoogleProfile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// Strategy resolves credentials to an existing (or newly provisioned)
// user.
type Strategy interface {
	Resolve(ctx context.Context, c Credentials) (*models.User, error)
}
