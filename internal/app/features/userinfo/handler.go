// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/app/system/normalize"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
)

// Handler serves the authenticated caller's own profile.
type Handler struct {
	Log   *zap.Logger
	Users *userstore.Store

	errs *apierror.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:   logger,
		Users: users,
		errs:  apierror.NewLogger(logger),
	}
}

// ServeMe handles GET /me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierror.Write(w, apierror.MissingToken())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		if err == userstore.ErrNotFound {
			apierror.Write(w, apierror.TokenInvalid())
			return
		}
		h.errs.ServerError(w, r, "load profile", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"user": u})
}

// ServeUpdateMe handles PATCH /me. Only the display name and avatar
// are self-service; email and provider are fixed at registration.
func (h *Handler) ServeUpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierror.Write(w, apierror.MissingToken())
		return
	}

	var req struct {
		FullName  string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	req.FullName = normalize.Name(req.FullName)
	if req.FullName == "" && req.AvatarURL == "" {
		apierror.Write(w, apierror.BadRequest("nothing to update"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Users.UpdateProfile(ctx, p.ID, userstore.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if err == userstore.ErrNotFound {
			apierror.Write(w, apierror.TokenInvalid())
			return
		}
		h.errs.ServerError(w, r, "update profile", err)
		return
	}

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		h.errs.ServerError(w, r, "reload profile", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"user": u})
}
