// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	membershipstore "github.com/dalemusser/workhive/internal/app/store/memberships"
	oauthstatestore "github.com/dalemusser/workhive/internal/app/store/oauthstate"
	postlinkstore "github.com/dalemusser/workhive/internal/app/store/postlinks"
	poststore "github.com/dalemusser/workhive/internal/app/store/posts"
	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	workspacestore "github.com/dalemusser/workhive/internal/app/store/workspaces"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
//
// The client is verified with a ping before startup proceeds so that a
// bad URI or unreachable server fails fast instead of surfacing on the
// first request.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		WorkHiveMongoClient:   client,
		WorkHiveMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index
// creation is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.WorkHiveMongoDatabase

	ensure := []struct {
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
	for _, e := range ensure {
		if err := e.fn(ctx); err != nil {
			logger.Error("index creation failed",
				zap.String("collection", e.name), zap.Error(err))
			return fmt.Errorf("ensure indexes for %s: %w", e.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
