// Package auth guards API routes with bearer access tokens.
//
// The middleware distinguishes the three ways a request can fail
// authentication, because clients react differently to each: a missing
// token means "log in", an expired token means "refresh and retry",
// and anything else means "start over".
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/credentials"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/app/system/token"
)

// Principal is the authenticated caller injected into r.Context().
type Principal struct {
	ID       primitive.ObjectID
	Email    string
	Name     string
	Provider string
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentPrincipal returns the authenticated caller and a "found?" flag.
func CurrentPrincipal(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	return p, ok
}

func withPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// WithTestPrincipal injects a principal directly, bypassing token
// verification. Only for handler tests.
func WithTestPrincipal(r *http.Request, p *Principal) *http.Request {
	return withPrincipal(r, p)
}

// Manager verifies bearer tokens and resolves them to principals.
type Manager struct {
	bearer *credentials.Bearer
	log    *zap.Logger
}

func NewManager(tokens *token.Service, users *userstore.Store, log *zap.Logger) *Manager {
	return &Manager{
		bearer: &credentials.Bearer{Tokens: tokens, Users: users},
		log:    log,
	}
}

// RequireBearer rejects requests without a valid access token. The 401
// body carries a machine-readable code: missing_token when no
// Authorization header is present, token_expired when the token's
// lifetime has passed, token_invalid for everything else.
func (m *Manager) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			apierror.Write(w, apierror.MissingToken())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		u, err := m.bearer.Resolve(ctx, credentials.Credentials{Token: raw})
		cancel()
		if err != nil {
			switch err {
			case token.ErrExpired:
				apierror.Write(w, apierror.TokenExpired())
			case credentials.ErrUnauthorized:
				apierror.Write(w, apierror.TokenInvalid())
			default:
				m.log.Error("bearer principal lookup failed", zap.Error(err))
				apierror.Write(w, apierror.TokenInvalid())
			}
			return
		}

		next.ServeHTTP(w, withPrincipal(r, &Principal{
			ID:       u.ID,
			Email:    u.Email,
			Name:     u.FullName,
			Provider: u.Provider,
		}))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <tok>"
// header. The scheme match is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}
