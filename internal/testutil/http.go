package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/workhive/internal/app/system/auth"
	"github.com/dalemusser/workhive/internal/domain/models"
)

// PrincipalFor builds an auth.Principal from a user model, the way the
// bearer middleware would after verifying an access token.
func PrincipalFor(u models.User) *auth.Principal {
	return &auth.Principal{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.FullName,
		Provider: u.Provider,
	}
}

// WithPrincipal adds a principal to the request context for testing
// authenticated handlers. This bypasses the bearer middleware.
func WithPrincipal(r *http.Request, p *auth.Principal) *http.Request {
	return auth.WithTestPrincipal(r, p)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a principal in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, u models.User) *http.Request {
	return WithPrincipal(NewRequest(method, target, body), PrincipalFor(u))
}

// NewID returns a fresh ObjectID hex string for requests that need one.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}
