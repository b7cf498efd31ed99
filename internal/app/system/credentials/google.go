package credentials

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/domain/models"
)

// Google resolves a verified Google profile to a principal. Matching
// runs in three steps, first hit wins:
//
//  1. a user already holding this google_id logs straight in
//  2. a user with the same email gets the Google identity linked on
//  3. otherwise a new google-provider user is created
//
// Step 2 is what lets someone who registered with a password later
// arrive through Google and land in the same account.
type Google struct {
	Users *userstore.Store
}

func (g *Google) Resolve(ctx context.Context, c Credentials) (*models.User, error) {
	if c.Google == nil || c.Google.ID == "" {
		return nil, errors.New("google strategy requires a verified profile")
	}
	prof := c.Google

	u, err := g.Users.GetByGoogleID(ctx, prof.ID)
	switch {
	case err == nil:
		if err := g.Users.RefreshGoogleProfile(ctx, u.ID, prof.Name, prof.AvatarURL); err != nil {
			return nil, err
		}
		return g.Users.GetByID(ctx, u.ID)
	case err != userstore.ErrNotFound:
		return nil, err
	}

	u, err = g.Users.GetByEmail(ctx, prof.Email)
	switch {
	case err == nil:
		if err := g.Users.LinkGoogle(ctx, u.ID, prof.ID, prof.Name, prof.AvatarURL); err != nil {
			return nil, err
		}
		return g.Users.GetByID(ctx, u.ID)
	case err != userstore.ErrNotFound:
		return nil, err
	}

	created, err := g.Users.Create(ctx, models.User{
		FullName:  prof.Name,
		Email:     prof.Email,
		Provider:  models.ProviderGoogle,
		GoogleID:  &prof.ID,
		AvatarURL: prof.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
