package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	oauthstatestore "github.com/dalemusser/workhive/internal/app/store/oauthstate"
	postlinkstore "github.com/dalemusser/workhive/internal/app/store/postlinks"
	poststore "github.com/dalemusser/workhive/internal/app/store/posts"
	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
)

// SetupTestDB connects to a local MongoDB instance and returns a database
// scoped to the calling test, with all collection indexes in place. The
// database is dropped and the client disconnected when the test finishes.
// Tests are skipped when no MongoDB is reachable, so the suite stays
// runnable without infrastructure.
//
// Set WORKHIVE_TEST_MONGO_URI to point at a non-default instance.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("WORKHIVE_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	dbName := fmt.Sprintf("workhive_test_%s", primitive.NewObjectID().Hex())
	db := client.Database(dbName)

	ensureIndexes(t, ctx, db)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

func ensureIndexes(t *testing.T, ctx context.Context, db *mongo.Database) {
	t.Helper()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"workspaces", workspacestore.New(db).EnsureIndexes},
		{"memberships", membershipstore.New(db).EnsureIndexes},
		{"posts", poststore.New(db).EnsureIndexes},
		{"workspace_posts", postlinkstore.New(db).EnsureIndexes},
		{"oauth_states", oauthstatestore.New(db).EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			t.Fatalf("failed to create %s indexes: %v", s.name, err)
		}
	}
}

// TestContext returns a context with a generous timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
