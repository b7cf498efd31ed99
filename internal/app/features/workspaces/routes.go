// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/workhive/internal/app/system/auth"
)

// Routes serves everything under /workspaces. postRoutes carries the
// workspace-scoped post endpoints so they share this router's bearer
// middleware without a cross-feature import.
func Routes(h *Handler, postRoutes chi.Router, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(am.RequireBearer)

		pr.Post("/", h.ServeCreate)
		pr.Get("/", h.ServeList)
		pr.Post("/join", h.ServeJoin)

		pr.Route("/{workspaceID}", func(wr chi.Router) {
			wr.Patch("/", h.ServeUpdate)
			wr.Get("/members", h.ServeMembers)
			wr.Post("/invite", h.ServeInvite)
			wr.Delete("/membership", h.ServeLeave)
			wr.Delete("/", h.ServeDelete)
			wr.Mount("/posts", postRoutes)
		})
	})

	return r
}
