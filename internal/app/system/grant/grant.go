// Package grant issues the access/refresh token pair handed out after
// any successful authentication, and records the refresh fingerprint
// that makes the pair revocable.
package grant

import (
	"context"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/token"
	"github.com/dalemusser/workhive/internal/domain/models"
)

// Grant is a freshly issued token pair.
type Grant struct {
	AccessToken  string
	RefreshToken string
}

// Issue creates a token pair for the user and stores the refresh token
// as the user's fingerprint. The store holds one fingerprint per user,
// so logging in anywhere invalidates the refresh token from everywhere
// else.
func Issue(ctx context.Context, tokens *token.Service, users *userstore.Store, u *models.User) (Grant, error) {
	access, err := tokens.IssueAccess(u.ID.Hex())
	if err != nil {
		return Grant{}, err
	}
	refresh, err := tokens.IssueRefresh(u.ID.Hex())
	if err != nil {
		return Grant{}, err
	}
	if err := users.SetRefreshFingerprint(ctx, u.ID, refresh); err != nil {
		return Grant{}, err
	}
	return Grant{AccessToken: access, RefreshToken: refresh}, nil
}
