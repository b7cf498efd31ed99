// internal/app/features/tokens/routes.go
package tokens

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the refresh endpoint, mounted at /refresh-token.
// Refresh is authenticated by the refresh token itself, not the bearer
// middleware, so the route stays public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeRefresh)

	return r
}
