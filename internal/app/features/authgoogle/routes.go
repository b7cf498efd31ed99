// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes serves the Google sign-in flow, mounted at /auth/google.
// Both endpoints are public; the state cookie and the one-time state
// row carry the CSRF protection.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)

	return r
}
