// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/authutil"
	"github.com/dalemusser/workhive/internal/app/system/credentials"
	"github.com/dalemusser/workhive/internal/app/system/grant"
	"github.com/dalemusser/workhive/internal/app/system/normalize"
	"github.com/dalemusser/workhive/internal/app/system/ratelimit"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/app/system/token"
	"github.com/dalemusser/workhive/internal/domain/models"
)

type Handler struct {
	Log    *zap.Logger
	Users  *userstore.Store
	Tokens *token.Service

	errs     *apierror.Logger
	password *credentials.Password
	limiter  *ratelimit.LoginLimiter
}

func NewHandler(users *userstore.Store, tokens *token.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Users:    users,
		Tokens:   tokens,
		errs:     apierror.NewLogger(logger),
		password: &credentials.Password{Users: users},
		limiter:  ratelimit.NewLoginLimiter(),
	}
}

// authResponse is the triple returned by every successful credential
// exchange.
type authResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ServeRegister handles POST /register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	req.FullName = normalize.Name(req.FullName)
	req.Email = normalize.Email(req.Email)
	if req.FullName == "" || req.Email == "" {
		apierror.Write(w, apierror.BadRequest("name and email are required"))
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		apierror.Write(w, apierror.BadRequest(err.Error()))
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errs.ServerError(w, r, "password hash failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Provider:     models.ProviderLocal,
	})
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			apierror.Write(w, apierror.Conflict(err.Error()))
			return
		}
		h.errs.ServerError(w, r, "register user", err)
		return
	}

	g, err := grant.Issue(ctx, h.Tokens, h.Users, &u)
	if err != nil {
		h.errs.ServerError(w, r, "issue tokens after register", err)
		return
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	writeJSON(w, http.StatusCreated, authResponse{
		User:         &u,
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
	})
}

// ServeLogin handles POST /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	email := normalize.Email(req.Email)
	if !h.limiter.Check(r, email) {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		apierror.Write(w, apierror.RateLimited())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.password.Resolve(ctx, credentials.Credentials{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		if err == credentials.ErrInvalidCredentials {
			apierror.Write(w, apierror.InvalidCredentials())
			return
		}
		h.errs.ServerError(w, r, "resolve password login", err)
		return
	}

	g, err := grant.Issue(ctx, h.Tokens, h.Users, u)
	if err != nil {
		h.errs.ServerError(w, r, "issue tokens after login", err)
		return
	}

	h.limiter.ResetEmail(email)
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()))
	writeJSON(w, http.StatusOK, authResponse{
		User:         u,
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
