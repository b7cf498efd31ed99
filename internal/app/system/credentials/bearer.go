package credentials

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/token"
	"github.com/dalemusser/workhive/internal/domain/models"
)

// Bearer resolves an access token to the principal it was issued for.
// Expiry surfaces as token.ErrExpired so transport code can tell the
// client to refresh; every other failure collapses to ErrUnauthorized.
type Bearer struct {
	Tokens *token.Service
	Users  *userstore.Store
}

func (b *Bearer) Resolve(ctx context.Context, c Credentials) (*models.User, error) {
	claims, err := b.Tokens.Verify(c.Token, token.TypeAccess)
	if err != nil {
		if err == token.ErrExpired {
			return nil, err
		}
		return nil, ErrUnauthorized
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}

	u, err := b.Users.GetByID(ctx, id)
	if err != nil {
		// A token for a deleted account is as good as forged.
		if err == userstore.ErrNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}
