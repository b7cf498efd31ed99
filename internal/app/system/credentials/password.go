package credentials

import (
	"context"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/authutil"
	"github.com/dalemusser/workhive/internal/domain/models"
)

// Password resolves an email and password against locally registered
// users.
type Password struct {
	Users *userstore.Store
}

func (p *Password) Resolve(ctx context.Context, c Credentials) (*models.User, error) {
	u, err := p.Users.GetByEmail(ctx, c.Email)
	if err != nil {
		if err == userstore.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Accounts created through Google have no password to check.
	if u.Provider != models.ProviderLocal || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if !authutil.CheckPassword(c.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
