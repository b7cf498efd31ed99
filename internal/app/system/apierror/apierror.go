// Package apierror defines the service's error taxonomy and maps it to
// HTTP responses with stable, low-cardinality reason codes.
//
// Handlers never leak raw store or driver errors to clients: they log the
// underlying error and write one of these codes instead.
package apierror

import (
	"errors"
	"net/http"
)

// Stable reason codes returned in the "code" field of error bodies.
// Clients branch on these, so they must not change casually. In
// particular, token_expired must stay distinct from token_invalid so
// clients know to attempt a refresh instead of a full re-login.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeMissingToken        = "missing_token"
	CodeTokenExpired        = "token_expired"
	CodeTokenInvalid        = "token_invalid"
	CodeFingerprintMismatch = "fingerprint_mismatch"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeInviteExpired       = "invite_expired"
	CodeConflict            = "conflict"
	CodeBadRequest          = "bad_request"
	CodeRateLimited         = "rate_limited"
	CodeUpstreamFailure     = "upstream_failure"
	CodePartialFailure      = "partial_failure"
)

// Error is a client-visible failure: an HTTP status, a stable code, and
// a human-readable message safe to return verbatim.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`

	// Stage names the cascade stage that failed for partial_failure
	// responses, so callers can retry just that stage.
	Stage string `json:"stage,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Constructors for the taxonomy.

func InvalidCredentials() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid credentials."}
}

func MissingToken() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeMissingToken, Message: "Authorization bearer token required."}
}

func TokenExpired() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "Token expired."}
}

func TokenInvalid() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeTokenInvalid, Message: "Invalid token."}
}

func FingerprintMismatch() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeFingerprintMismatch, Message: "Refresh token is no longer active."}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	if msg == "" {
		msg = "Not found."
	}
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func InviteExpired() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInviteExpired, Message: "Invite token has expired."}
}

func Conflict(msg string) *Error {
	if msg == "" {
		msg = "Conflict."
	}
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: msg}
}

func BadRequest(msg string) *Error {
	if msg == "" {
		msg = "Invalid request."
	}
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func RateLimited() *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "Too many attempts. Try again later."}
}

func Upstream() *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeUpstreamFailure, Message: "Upstream service unavailable. Retry later."}
}

// Partial reports a cascade delete that stopped at the named stage.
// The operation is idempotent per stage, so the caller may retry.
func Partial(stage string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodePartialFailure,
		Message: "Operation partially completed; retry to finish.",
		Stage:   stage,
	}
}

// From converts any error into an *Error, passing through values that
// already are one and collapsing everything else to upstream_failure.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Upstream()
}
