// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	oauthstatestore "github.com/dalemusser/workhive/internal/app/store/oauthstate"
	"github.com/dalemusser/workhive/internal/app/system/tasks"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
)

// jobRunner is started here and stopped in Shutdown.
var jobRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It is the place to warm caches or perform any app-wide setup that
// depends on config and backends.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("operation timeouts overridden from environment",
			zap.Int("overrides", n))
	}

	jobRunner = tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(oauthstatestore.New(deps.WorkHiveMongoDatabase), logger),
	)
	jobRunner.Start()

	return nil
}
