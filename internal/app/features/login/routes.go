// internal/app/features/login/routes.go
package login

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.ServeRegister)
	r.Post("/login", h.ServeLogin)

	return r
}
