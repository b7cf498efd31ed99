package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/workhive/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a local-provider test user with the given password hash.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, passwordHash string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        text.Fold(email),
		PasswordHash: passwordHash,
		Provider:     models.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateGoogleUser creates a google-provider test user with the given Google ID.
func (f *Fixtures) CreateGoogleUser(ctx context.Context, fullName, email, googleID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(email),
		Provider:   models.ProviderGoogle,
		GoogleID:   &googleID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test google user: %v", err)
	}

	return user
}

// CreateWorkspace creates a test workspace owned by the given user.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("workspaces").InsertOne(ctx, ws)
	if err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}

	return ws
}

// CreateWorkspaceWithInvite creates a test workspace carrying an active invite token.
func (f *Fixtures) CreateWorkspaceWithInvite(ctx context.Context, name string, ownerID primitive.ObjectID, token string, expiresAt time.Time) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		OwnerID:         ownerID,
		InviteToken:     &token,
		InviteExpiresAt: &expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := f.db.Collection("workspaces").InsertOne(ctx, ws)
	if err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}

	return ws
}

// CreateMembership creates a membership record linking a user to a workspace.
func (f *Fixtures) CreateMembership(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) models.Membership {
	f.t.Helper()

	membership := models.Membership{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := f.db.Collection("memberships").InsertOne(ctx, membership)
	if err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}

	return membership
}

// CreatePost creates a test post owned by the given user.
func (f *Fixtures) CreatePost(ctx context.Context, ownerID primitive.ObjectID, title, content string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("posts").InsertOne(ctx, post)
	if err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}

	return post
}

// CreatePostLink creates a link record placing a post in a workspace.
func (f *Fixtures) CreatePostLink(ctx context.Context, postID, workspaceID primitive.ObjectID) models.WorkspacePost {
	f.t.Helper()

	link := models.WorkspacePost{
		ID:          primitive.NewObjectID(),
		PostID:      postID,
		WorkspaceID: workspaceID,
	}

	_, err := f.db.Collection("workspace_posts").InsertOne(ctx, link)
	if err != nil {
		f.t.Fatalf("failed to create test post link: %v", err)
	}

	return link
}
