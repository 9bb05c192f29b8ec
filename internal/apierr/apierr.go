// Package apierr defines the JSON error envelope and error codes shared
// by every management API endpoint and by the HTTP middleware.
package apierr

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Error codes shared by all management API endpoints.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeNodeNotFound         = "NODE_NOT_FOUND"
	CodeNodeUnreachable      = "NODE_UNREACHABLE"
	CodeNodeUnauthorized     = "NODE_UNAUTHORIZED"
	CodeTransportUnsupported = "TRANSPORT_UNSUPPORTED"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED" // local API token rejection, not a node outcome
	CodeStreamUnavailable    = "STREAM_UNAVAILABLE"
)

// APIError is the error body carried inside the envelope.
type APIError struct {
	Code      string         `json:"code" example:"NODE_NOT_FOUND"`
	Message   string         `json:"message" example:"node \"cam1\" not found"`
	NodeID    string         `json:"node_id,omitempty" example:"cam1"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp" example:"2026-01-02T15:04:05Z"`
}

// ErrorEnvelope is the JSON error envelope returned by every endpoint.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WriteError writes the error envelope with the given HTTP status.
func WriteError(w http.ResponseWriter, status int, e APIError) {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: e})
}

// ValidationError writes a 400 with field-level detail.
func ValidationError(w http.ResponseWriter, message string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, APIError{
		Code:    CodeValidationError,
		Message: message,
		Details: details,
	})
}

// NotFound writes a 404 for a missing node.
func NotFound(w http.ResponseWriter, nodeID string) {
	WriteError(w, http.StatusNotFound, APIError{
		Code:    CodeNodeNotFound,
		Message: "node " + strconv.Quote(nodeID) + " not found",
		NodeID:  nodeID,
	})
}

// InternalError writes a 500 envelope.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, APIError{
		Code:    CodeInternalError,
		Message: message,
	})
}

// RateLimited writes a 429 envelope.
func RateLimited(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, APIError{
		Code:    CodeRateLimited,
		Message: "rate limit exceeded",
	})
}

// Unauthorized writes a 401 envelope for a rejected API token.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, APIError{
		Code:    CodeUnauthorized,
		Message: message,
	})
}
