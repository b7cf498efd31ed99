// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
)

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

// ServeLogout handles POST /logout.
//
// Only the refresh fingerprint is cleared; access tokens are stateless
// and live to their natural expiry. Logging out twice is harmless.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		apierror.Write(w, apierror.MissingToken())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.ClearRefreshFingerprint(ctx, p.ID); err != nil {
		h.errs.ServerError(w, r, "clear refresh fingerprint", err)
		return
	}

	h.Log.Info("user logged out", zap.String("user_id", p.ID.Hex()))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Logged out."})
}
