// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
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
	ErrNotFound       = errors.New("workspace not found")
	ErrInviteNotFound = errors.New("no workspace holds this invite token")
	ErrDuplicateToken = errors.New("invite token collision")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Create inserts a new workspace.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.Name = normalize.Name(ws.Name)
	ws.NameCI = text.Fold(ws.Name)
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByIDs returns the workspaces whose IDs appear in the given list.
// IDs that no longer resolve to a document are simply absent from the
// result, so callers can detect dangling references.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var workspaces []models.Workspace
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Update modifies a workspace's mutable fields. Empty fields are left
// unchanged.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, ws models.Workspace) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if name := normalize.Name(ws.Name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if ws.Description != "" {
		set["description"] = ws.Description
	}
	if ws.ImageURL != "" {
		set["image_url"] = ws.ImageURL
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

// Delete removes a workspace by ID. Deleting an absent workspace is
// not an error so cascade retries stay idempotent.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetInvite stores a fresh invite token on the workspace, replacing any
// prior token whether or not it had expired.
func (s *Store) SetInvite(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"invite_token":      normalize.InviteToken(token),
		"invite_expires_at": expiresAt.UTC(),
		"updated_at":        time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateToken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByInviteToken finds the workspace currently holding the given
// token. Expiry is not checked here; redemption decides what an
// expired token means.
func (s *Store) GetByInviteToken(ctx context.Context, token string) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"invite_token": normalize.InviteToken(token)}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrInviteNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// ClearInvite removes the invite fields from the workspace, but only if
// it still holds the given token. The token match keeps a concurrent
// regeneration from being wiped by a stale expiry sweep.
func (s *Store) ClearInvite(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "invite_token": normalize.InviteToken(token)},
		bson.M{
			"$unset": bson.M{"invite_token": "", "invite_expires_at": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// EnsureIndexes creates indexes for the workspaces collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// At most one workspace per live token; sparse so workspaces
		// without an invite do not collide on the missing field.
		{
			Keys:    bson.D{{Key: "invite_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_workspace_invite_token"),
		},
		// Case-insensitive name for sorting
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_workspace_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_workspace_owner"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
