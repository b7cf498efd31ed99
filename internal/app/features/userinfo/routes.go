// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/workhive/internal/app/system/auth"
)

func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(am.RequireBearer)
		pr.Get("/", h.ServeMe)
		pr.Patch("/", h.ServeUpdateMe)
	})

	return r
}
