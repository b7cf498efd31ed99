// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dalemusser/workhive/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/workhive/internal/app/store/users"
	"github.com/dalemusser/workhive/internal/app/system/apierror"
	"github.com/dalemusser/workhive/internal/app/system/credentials"
	"github.com/dalemusser/workhive/internal/app/system/grant"
	"github.com/dalemusser/workhive/internal/app/system/timeouts"
	"github.com/dalemusser/workhive/internal/app/system/token"
)

const (
	stateCookieName = "workhive_oauth_state"
	stateTTL        = 10 * time.Minute
)

// Handler runs the Google OAuth login flow. CSRF protection is
// two-layered: the state parameter is stored server-side as a one-time
// row with a TTL, and a signed copy travels in a cookie so the
// callback can confirm it came back to the same browser.
type Handler struct {
	Log        *zap.Logger
	Users      *userstore.Store
	Tokens     *token.Service
	StateStore *oauthstate.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://workhive.app/auth/google/callback"

	errs   *apierror.Logger
	google *credentials.Google
	cookie *securecookie.SecureCookie
}

func NewHandler(
	users *userstore.Store,
	tokens *token.Service,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL, stateKey string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		Users:        users,
		Tokens:       tokens,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		errs:         apierror.NewLogger(logger),
		google:       &credentials.Google{Users: users},
		cookie:       securecookie.New([]byte(stateKey), nil),
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: redirect to Google's consent
// screen with a fresh state value.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		apierror.Write(w, apierror.Upstream())
		return
	}

	state, err := generateState()
	if err != nil {
		h.errs.ServerError(w, r, "generate OAuth state", err)
		return
	}

	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.errs.ServerError(w, r, "save OAuth state", err)
		return
	}

	encoded, err := h.cookie.Encode(stateCookieName, state)
	if err != nil {
		h.errs.ServerError(w, r, "sign OAuth state cookie", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validate state,
// exchange the code, resolve the Google profile to a principal, and
// answer with the same token triple a password login returns.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth denied",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		apierror.Write(w, apierror.BadRequest("Google sign-in was cancelled or denied."))
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" || !h.stateCookieMatches(r, state) {
		h.Log.Warn("OAuth state missing or cookie mismatch")
		apierror.Write(w, apierror.BadRequest("invalid OAuth state"))
		return
	}
	clearCookie(w, stateCookieName)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		h.errs.ServerError(w, r, "validate OAuth state", err)
		return
	}
	if !valid {
		h.Log.Warn("OAuth state unknown, expired, or reused")
		apierror.Write(w, apierror.BadRequest("invalid OAuth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		apierror.Write(w, apierror.BadRequest("missing OAuth code"))
		return
	}

	oauthToken, err := h.oauth2Config().Exchange(r.Context(), code)
	if err != nil {
		h.Log.Error("OAuth code exchange failed", zap.Error(err))
		apierror.Write(w, apierror.Upstream())
		return
	}

	info, err := fetchGoogleUserInfo(r.Context(), oauthToken)
	if err != nil {
		h.Log.Error("Google userinfo fetch failed", zap.Error(err))
		apierror.Write(w, apierror.Upstream())
		return
	}

	mctx, mcancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer mcancel()

	u, err := h.google.Resolve(mctx, credentials.Credentials{Google: &credentials.GoogleProfile{
		ID:        info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}})
	if err != nil {
		if err == userstore.ErrDuplicateGoogleID || err == userstore.ErrDuplicateEmail {
			apierror.Write(w, apierror.Conflict(err.Error()))
			return
		}
		h.errs.ServerError(w, r, "resolve google principal", err)
		return
	}

	g, err := grant.Issue(mctx, h.Tokens, h.Users, u)
	if err != nil {
		h.errs.ServerError(w, r, "issue tokens after google login", err)
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.String("provider", u.Provider))

	writeJSON(w, http.StatusOK, map[string]any{
		"user":         u,
		"accessToken":  g.AccessToken,
		"refreshToken": g.RefreshToken,
	})
}

// stateCookieMatches decodes the signed state cookie and compares it to
// the state parameter Google echoed back.
func (h *Handler) stateCookieMatches(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	var fromCookie string
	if err := h.cookie.Decode(stateCookieName, c.Value, &fromCookie); err != nil {
		return false
	}
	return fromCookie == state
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
