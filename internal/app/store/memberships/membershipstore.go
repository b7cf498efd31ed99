// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/workhive/internal/app/system/normalize"
	"github.com/dalemusser/workhive/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("membership not found")
	ErrDuplicate = errors.New("user is already a member of this workspace")
	ErrBadRole   = errors.New("invalid membership role")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

// Add records a user's membership in a workspace with the given role.
// The unique (workspace_id, user_id) index rejects a second membership
// for the same pair.
func (s *Store) Add(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) (models.Membership, error) {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return models.Membership{}, ErrBadRole
	}

	m := models.Membership{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Membership{}, ErrDuplicate
		}
		return models.Membership{}, err
	}
	return m, nil
}

// Get returns the membership record for the given workspace and user.
func (s *Store) Get(ctx context.Context, workspaceID, userID primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Membership{}, ErrNotFound
		}
		return models.Membership{}, err
	}
	return m, nil
}

// Remove deletes a user's membership and reports whether a record was
// actually removed, so callers can distinguish leaving from a repeat
// request.
func (s *Store) Remove(ctx context.Context, workspaceID, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListForUser returns all memberships held by the user, oldest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// ListForWorkspace returns all memberships of the workspace, oldest first.
func (s *Store) ListForWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Membership, error) {
	return s.find(ctx, bson.M{"workspace_id": workspaceID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.Membership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// DeleteForWorkspace removes every membership of the workspace and
// returns the number removed. Zero removals is not an error, which
// keeps cascade retries idempotent.
func (s *Store) DeleteForWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the memberships collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// One membership per user per workspace.
		{
			Keys: bson.D{
				{Key: "workspace_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_membership_workspace_user"),
		},
		// Listing a user's workspaces.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_membership_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
