// internal/app/store/postlinks/postlinkstore.go
//
// Post-to-workspace placement lives in its own collection rather than
// on the post document, so the workspace cascade can clear a
// workspace's links in one pass without touching post bodies.
package postlinkstore

import (
	"context"
	"errors"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/workhive/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("post link not found")
	ErrDuplicate = errors.New("post is already placed in a workspace")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_posts")}
}

// Create places a post in a workspace. A post belongs to exactly one
// workspace; the unique post_id index rejects a second placement.
func (s *Store) Create(ctx context.Context, postID, workspaceID primitive.ObjectID) (models.WorkspacePost, error) {
	link := models.WorkspacePost{
		ID:          primitive.NewObjectID(),
		PostID:      postID,
		WorkspaceID: workspaceID,
	}
	if _, err := s.c.InsertOne(ctx, link); err != nil {
		if wafflemongo.IsDup(err) {
			return models.WorkspacePost{}, ErrDuplicate
		}
		return models.WorkspacePost{}, err
	}
	return link, nil
}

// GetByPost returns the link record placing the given post.
func (s *Store) GetByPost(ctx context.Context, postID primitive.ObjectID) (models.WorkspacePost, error) {
	var link models.WorkspacePost
	err := s.c.FindOne(ctx, bson.M{"post_id": postID}).Decode(&link)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.WorkspacePost{}, ErrNotFound
		}
		return models.WorkspacePost{}, err
	}
	return link, nil
}

// ListForWorkspace returns all link records of the workspace.
func (s *Store) ListForWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.WorkspacePost, error) {
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var links []models.WorkspacePost
	if err := cur.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// DeleteByPost removes the link for the given post and reports whether
// one was removed.
func (s *Store) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"post_id": postID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteForWorkspace removes every link of the workspace and returns
// the number removed. Zero removals is not an error.
func (s *Store) DeleteForWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the workspace_posts collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// One placement per post.
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_post_link_post"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_post_link_workspace"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
