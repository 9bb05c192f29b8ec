package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// mockModuleSource satisfies the ModuleSource interface for testing.
type mockModuleSource struct {
	modules    []plugin.Plugin
	routes     map[string][]plugin.Route
	rootRoutes map[string][]plugin.Route
}

func (m *mockModuleSource) AllRoutes() map[string][]plugin.Route {
	if m.routes != nil {
		return m.routes
	}
	return map[string][]plugin.Route{}
}

func (m *mockModuleSource) AllRootRoutes() map[string][]plugin.Route {
	if m.rootRoutes != nil {
		return m.rootRoutes
	}
	return map[string][]plugin.Route{}
}

func (m *mockModuleSource) All() []plugin.Plugin {
	return m.modules
}

// stubModule satisfies plugin.Plugin for testing.
type stubModule struct {
	info plugin.PluginInfo
}

func (s *stubModule) Info() plugin.PluginInfo                          { return s.info }
func (s *stubModule) Init(_ context.Context, _ plugin.Dependencies) error { return nil }
func (s *stubModule) Start(_ context.Context) error                    { return nil }
func (s *stubModule) Stop(_ context.Context) error                     { return nil }

func newTestServer(ready ReadinessChecker) *Server {
	modules := &mockModuleSource{
		modules: []plugin.Plugin{
			&stubModule{info: plugin.PluginInfo{
				Name:        "fleet",
				Version:     "0.1.0",
				Description: "Camera node registry",
			}},
		},
	}
	return New("127.0.0.1:0", modules, zap.NewNop(), ready, Options{})
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "alive" {
		t.Errorf("status = %q, want %q", body["status"], "alive")
	}
}

func TestHandleReadyz_Healthy(t *testing.T) {
	srv := newTestServer(func(_ context.Context) error { return nil })

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ready" {
		t.Errorf("status = %q, want %q", body["status"], "ready")
	}
}

func TestHandleReadyz_Unhealthy(t *testing.T) {
	srv := newTestServer(func(_ context.Context) error {
		return errors.New("database unreachable")
	})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", http.NoBody))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "not ready" {
		t.Errorf("status = %q, want %q", body["status"], "not ready")
	}
	if !strings.Contains(body["error"], "database unreachable") {
		t.Errorf("error = %q, want it to contain %q", body["error"], "database unreachable")
	}
}

func TestHandleReadyz_NilChecker(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp VersionResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Service != "camhub" {
		t.Errorf("service = %q, want %q", resp.Service, "camhub")
	}
	if resp.Version == nil {
		t.Error("expected version map in response")
	}
}

func TestHandleModules(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/modules", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var mods []ModuleResponse
	_ = json.NewDecoder(w.Body).Decode(&mods)
	if len(mods) != 1 {
		t.Fatalf("len(modules) = %d, want 1", len(mods))
	}
	if mods[0].Name != "fleet" {
		t.Errorf("name = %q, want %q", mods[0].Name, "fleet")
	}
	if mods[0].Version != "0.1.0" {
		t.Errorf("version = %q, want %q", mods[0].Version, "0.1.0")
	}
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected prometheus Go runtime metrics in /metrics output")
	}
}

func TestMiddlewareChain_Integration(t *testing.T) {
	srv := newTestServer(nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", http.NoBody))

	if v := w.Header().Get("X-CamHub-Version"); v == "" {
		t.Error("expected X-CamHub-Version header from middleware")
	}
	if v := w.Header().Get("X-Request-ID"); v == "" {
		t.Error("expected X-Request-ID header from middleware")
	}
	if v := w.Header().Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", v, "nosniff")
	}
	if v := w.Header().Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", v, "DENY")
	}
}

func TestAPIAuth_Integration(t *testing.T) {
	modules := &mockModuleSource{}
	srv := New("127.0.0.1:0", modules, zap.NewNop(), nil, Options{APIToken: "s3cret"})

	// /api endpoints require the token.
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/version", http.NoBody))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated /api/version status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/version", http.NoBody)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated /api/version status = %d, want %d", w.Code, http.StatusOK)
	}

	// Operational probes stay open.
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("unauthenticated /healthz status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestModuleRoutes_MountedUnderAPI(t *testing.T) {
	modules := &mockModuleSource{
		routes: map[string][]plugin.Route{
			"fleet": {
				{
					Method: "POST",
					Path:   "/nodes",
					Handler: func(w http.ResponseWriter, _ *http.Request) {
						w.WriteHeader(http.StatusCreated)
					},
				},
			},
		},
	}
	srv := New("127.0.0.1:0", modules, zap.NewNop(), nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/nodes", http.NoBody))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestRootRoutes_MountedVerbatim(t *testing.T) {
	modules := &mockModuleSource{
		rootRoutes: map[string][]plugin.Route{
			"stream": {
				{
					Method: "GET",
					Path:   "/health",
					Handler: func(w http.ResponseWriter, _ *http.Request) {
						w.WriteHeader(http.StatusOK)
					},
				},
			},
		},
	}
	srv := New("127.0.0.1:0", modules, zap.NewNop(), nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
