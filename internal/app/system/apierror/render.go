// internal/app/system/apierror/render.go
package apierror

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Write renders an *Error as a JSON response.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

// Logger pairs response writing with structured logging so handlers can
// report failures in one call. The internal cause goes to the log and
// the stable code goes to the client.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates an error Logger backed by zap.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{log: logger}
}

// ServerError logs an internal error and writes it to the client via
// From: a taxonomy error wrapped somewhere below the handler keeps its
// status and code, anything else collapses to upstream_failure.
func (l *Logger) ServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	l.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Write(w, From(err))
}

// Reject logs at warn level and writes the given client error.
func (l *Logger) Reject(w http.ResponseWriter, r *http.Request, msg string, e *Error) {
	l.log.Warn(msg,
		zap.String("code", e.Code),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Write(w, e)
}

// BadRequest logs a malformed request and writes bad_request with the
// given client-safe message.
func (l *Logger) BadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, clientMsg string) {
	l.log.Warn(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Write(w, BadRequest(clientMsg))
}
