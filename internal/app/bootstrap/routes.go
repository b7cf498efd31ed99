// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/dalemusser/workhive/internal/app/features/authgoogle"
	healthfeature "github.com/dalemusser/workhive/internal/app/features/health"
	loginfeature "github.com/dalemusser/workhive/internal/app/features/login"
	logoutfeature "github.com/dalemusser/workhive/internal/app/features/logout"
	postsfeature "github.com/dalemusser/workhive/internal/app/features/posts"
	tokensfeature "github.com/dalemusser/workhive/internal/app/features/tokens"
	userinfofeature "github.com/dalemusser/workhive/internal/app/features/userinfo"
	workspacesfeature "github.com/dalemusser/workhive/internal/app/features/workspaces"
	oauthstatestore "github.com/dalemusser/workhive/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/app/system/token"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// WorkHive builds the token service, the bearer-auth manager, and the
// per-collection stores, then mounts feature routers for registration,
// login, Google sign-in, token refresh, the current-user endpoints,
// workspaces, and posts.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.WorkHiveMongoDatabase

	// Token service fails fast on a missing secret; ValidateConfig has
	// already checked it, so an error here is a programming mistake.
	tokens, err := token.New([]byte(appCfg.JWTSecret), appCfg.AccessTokenTTL, appCfg.RefreshTokenTTL)
	if err != nil {
		logger.Error("token service init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	am := auth.NewManager(tokens, users, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.WorkHiveMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Registration and password login
	loginHandler := loginfeature.NewHandler(users, tokens, logger)
	r.Mount("/", loginfeature.Routes(loginHandler))

	// Google sign-in
	googleHandler := authgooglefeature.NewHandler(
		users, tokens, oauthstatestore.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.OAuthStateKey, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Token refresh and logout
	tokensHandler := tokensfeature.NewHandler(users, tokens, logger)
	r.Mount("/refresh-token", tokensfeature.Routes(tokensHandler))

	logoutHandler := logoutfeature.NewHandler(users, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, am))

	// Current user
	userinfoHandler := userinfofeature.NewHandler(users, logger)
	r.Mount("/me", userinfofeature.Routes(userinfoHandler, am))

	// Workspaces and posts. The workspace router hosts the
	// workspace-scoped post endpoints so they share its middleware.
	postsHandler := postsfeature.NewHandler(db, logger)
	workspacesHandler := workspacesfeature.NewHandler(db, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler,
		postsfeature.WorkspaceRoutes(postsHandler), am))
	r.Mount("/posts", postsfeature.Routes(postsHandler, am))

	return r, nil
}
