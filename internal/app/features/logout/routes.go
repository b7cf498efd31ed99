// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/workhive/internal/app/system/auth"
)

func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only authenticated callers can log out.
		pr.Use(am.RequireBearer)
		pr.Post("/", h.ServeLogout)
	})

	return r
}
