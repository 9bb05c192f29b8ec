package apierr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var env ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestWriteError_FillsTimestamp(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, APIError{Code: CodeValidationError, Message: "bad"})

	env := decode(t, w)
	if env.Error.Timestamp == "" {
		t.Fatal("timestamp not set")
	}
	if _, err := time.Parse(time.RFC3339, env.Error.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", env.Error.Timestamp, err)
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "cam1")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	env := decode(t, w)
	if env.Error.Code != CodeNodeNotFound {
		t.Errorf("code = %q, want %q", env.Error.Code, CodeNodeNotFound)
	}
	if env.Error.NodeID != "cam1" {
		t.Errorf("node_id = %q, want cam1", env.Error.NodeID)
	}
	if env.Error.Message != `node "cam1" not found` {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestValidationError_CarriesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationError(w, "invalid node", map[string]any{"name": "must not be empty"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decode(t, w)
	if env.Error.Details["name"] != "must not be empty" {
		t.Errorf("details = %v, want name entry", env.Error.Details)
	}
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w http.ResponseWriter)
		status   int
		wantCode string
	}{
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom") }, http.StatusInternalServerError, CodeInternalError},
		{"rate limited", RateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "missing bearer token") }, http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if env := decode(t, w); env.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}
