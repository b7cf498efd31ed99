// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/workhive/internal/app/system/normalize"
	"github.com/dalemusser/workhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateGoogleID is returned when a Google identity is already bound to another user.
	ErrDuplicateGoogleID = errors.New("this Google account is already linked to another user")

	errBadProvider   = errors.New(`provider must be "local" or "google"`)
	errLocalNeedsPwd = errors.New("local accounts require a password hash")
	errGoogleNeedsID = errors.New("google accounts require a google id")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByIDs returns the users whose IDs appear in the given list. IDs
// with no matching row are skipped, not errors.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByGoogleID looks up a user by its linked Google identity.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// The provider invariant is enforced here: local accounts carry a
// password hash, google accounts carry a google id.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Provider = normalize.Provider(u.Provider)

	switch u.Provider {
	case models.ProviderLocal:
		if u.PasswordHash == "" {
			return models.User{}, errLocalNeedsPwd
		}
		if u.GoogleID != nil {
			return models.User{}, errBadProvider
		}
	case models.ProviderGoogle:
		if u.GoogleID == nil || *u.GoogleID == "" {
			return models.User{}, errGoogleNeedsID
		}
		if u.PasswordHash != "" {
			return models.User{}, errBadProvider
		}
	default:
		return models.User{}, errBadProvider
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupError(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// LinkGoogle binds a Google identity onto an existing user: sets
// google_id, flips provider to google, and refreshes the
// provider-issued display fields. The password hash is kept so the
// linked account could be detached again by account management.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID, fullName, avatarURL string) error {
	set := bson.M{
		"google_id":  googleID,
		"provider":   models.ProviderGoogle,
		"updated_at": time.Now().UTC(),
	}
	if fullName = normalize.Name(fullName); fullName != "" {
		set["full_name"] = fullName
		set["full_name_ci"] = text.Fold(fullName)
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateGoogleID
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshGoogleProfile updates the provider-issued fields on an
// already-linked account after a Google re-login.
func (s *Store) RefreshGoogleProfile(ctx context.Context, id primitive.ObjectID, fullName, avatarURL string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if fullName = normalize.Name(fullName); fullName != "" {
		set["full_name"] = fullName
		set["full_name_ci"] = text.Fold(fullName)
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetRefreshFingerprint records the single active refresh token for the
// user, invalidating any previously issued one.
func (s *Store) SetRefreshFingerprint(ctx context.Context, id primitive.ObjectID, fingerprint string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"refresh_fingerprint": fingerprint,
		"updated_at":          time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshFingerprint removes the stored refresh token (logout).
// Clearing an already-clear fingerprint is a no-op, so logout is
// idempotent.
func (s *Store) ClearRefreshFingerprint(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refresh_fingerprint": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ProfileUpdate holds the self-service editable fields.
type ProfileUpdate struct {
	FullName  string
	AvatarURL string
}

// UpdateProfile applies a profile edit. Empty fields are left unchanged.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name := normalize.Name(upd.FullName); name != "" {
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.AvatarURL != "" {
		set["avatar_url"] = upd.AvatarURL
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the uniqueness indexes backing the principal
// invariants: unique email, unique google_id when present.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email"),
		},
		{
			Keys: bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).
				SetName("idx_user_google_id"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// dupError maps a duplicate-key error to the violated constraint. The
// driver error message names the index, which is the only signal the
// server gives us.
func dupError(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "idx_user_google_id") {
				return ErrDuplicateGoogleID
			}
		}
	}
	return ErrDuplicateEmail
}
