// internal/app/features/tokens/handler.go
package tokens

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/app/system/token"
)

type Handler struct {
	Log    *zap.Logger
	Users  *userstore.Store
	Tokens *token.Service

	errs *apierror.Logger
}

func NewHandler(users *userstore.Store, tokens *token.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Users:  users,
		Tokens: tokens,
		errs:   apierror.NewLogger(logger),
	}
}

// ServeRefresh handles POST /refresh-token.
//
// The presented refresh token must match the fingerprint stored for
// its subject. A token that was superseded by a newer login, or
// cleared by logout, fails that check even though its signature still
// verifies. Success issues a new access token only; the refresh token
// stays valid until its own expiry.
func (h *Handler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		apierror.Write(w, apierror.BadRequest("refreshToken is required"))
		return
	}

	claims, err := h.Tokens.Verify(req.RefreshToken, token.TypeRefresh)
	if err != nil {
		if err == token.ErrExpired {
			apierror.Write(w, apierror.TokenExpired())
			return
		}
		apierror.Write(w, apierror.TokenInvalid())
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		apierror.Write(w, apierror.TokenInvalid())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == userstore.ErrNotFound {
			apierror.Write(w, apierror.TokenInvalid())
			return
		}
		h.errs.ServerError(w, r, "load refresh subject", err)
		return
	}

	if u.RefreshFingerprint == nil || *u.RefreshFingerprint != req.RefreshToken {
		apierror.Write(w, apierror.FingerprintMismatch())
		return
	}

	access, err := h.Tokens.IssueAccess(u.ID.Hex())
	if err != nil {
		h.errs.ServerError(w, r, "issue access token", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": access})
}
