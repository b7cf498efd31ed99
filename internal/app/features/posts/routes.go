// internal/app/features/posts/routes.go
package posts

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/workhive/internal/app/system/auth"
)

// Routes serves the post-scoped endpoints, mounted at /posts.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(am.RequireBearer)

		pr.Route("/{postID}", func(sr chi.Router) {
			sr.Patch("/", h.ServeUpdate)
			sr.Delete("/", h.ServeDelete)
		})
	})

	return r
}

// WorkspaceRoutes serves the workspace-scoped endpoints. The workspaces
// router mounts it under /{workspaceID}/posts, inside its own bearer
// middleware, so no auth is applied here.
func WorkspaceRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeListForWorkspace)
	r.Post("/", h.ServeCreate)
	return r
}
