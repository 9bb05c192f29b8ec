// Package server provides the main HTTP server for CamHub.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camhub/camhub/internal/version"
	"github.com/camhub/camhub/pkg/plugin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// ModuleSource provides the server with module metadata and routes.
// Defined here (consumer-side) rather than importing the concrete registry.
type ModuleSource interface {
	AllRoutes() map[string][]plugin.Route
	AllRootRoutes() map[string][]plugin.Route
	All() []plugin.Plugin
}

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// Options configures optional server behavior.
type Options struct {
	APIToken  string // static bearer token guarding /api; empty disables auth
	DevMode   bool   // serve Swagger UI at /swagger/
	RateRPS   float64
	RateBurst int
}

// Server is the main CamHub HTTP server.
type Server struct {
	httpServer *http.Server
	modules    ModuleSource
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

// Paths exempt from auth, rate limiting, and request logging: operational
// probes plus the node-side wire contract that remote hubs poll.
var openPaths = []string{"/healthz", "/readyz", "/metrics", "/health", "/ready"}

// New creates a new Server with middleware and routes.
func New(addr string, modules ModuleSource, logger *zap.Logger, ready ReadinessChecker, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		modules: modules,
		logger:  logger,
		mux:     mux,
		ready:   ready,
	}

	s.registerRoutes()
	s.mountModuleRoutes()

	if opts.DevMode {
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		logger.Info("swagger UI enabled (dev_mode)", zap.String("path", "/swagger/"))
	}

	if opts.RateRPS == 0 {
		opts.RateRPS = 100
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 200
	}

	// Middleware chain: outermost listed first.
	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, openPaths),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
		RateLimitMiddleware(opts.RateRPS, opts.RateBurst, openPaths),
		BearerAuthMiddleware(opts.APIToken, openPaths),
	}

	handler := Chain(mux, middlewares...)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: MJPEG streaming responses are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// registerRoutes sets up all core routes.
func (s *Server) registerRoutes() {
	// Unversioned operational endpoints.
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /api/version", s.handleVersion)
	s.mux.HandleFunc("GET /api/modules", s.handleModules)
}

// mountModuleRoutes registers module API routes under /api and root routes
// verbatim. Route paths are owned by the modules so the wire contract
// (e.g. /api/nodes, /health) is stable regardless of module naming.
func (s *Server) mountModuleRoutes() {
	for moduleName, routes := range s.modules.AllRoutes() {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api%s", route.Method, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("module", moduleName),
				zap.String("pattern", pattern),
			)
		}
	}
	for moduleName, routes := range s.modules.AllRootRoutes() {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s %s", route.Method, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted root route",
				zap.String("module", moduleName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully assembled handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealthz is a liveness probe -- returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// handleReadyz checks readiness -- returns 200 if the server can serve traffic.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// VersionResponse is the response for GET /api/version.
type VersionResponse struct {
	Service string            `json:"service" example:"camhub"`
	Version map[string]string `json:"version"`
}

// ModuleResponse describes a registered module.
type ModuleResponse struct {
	Name        string `json:"name" example:"fleet"`
	Version     string `json:"version" example:"0.1.0"`
	Description string `json:"description" example:"Camera node registry"`
}

// handleVersion returns service and build information.
//
//	@Summary		Version
//	@Description	Returns service name and build version information.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	VersionResponse
//	@Router			/version [get]
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(VersionResponse{
		Service: "camhub",
		Version: version.Map(),
	})
}

// handleModules returns the list of registered modules.
//
//	@Summary		List modules
//	@Description	Returns all registered modules with their metadata.
//	@Tags			system
//	@Produce		json
//	@Success		200	{array}	ModuleResponse
//	@Router			/modules [get]
func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	mods := s.modules.All()
	info := make([]ModuleResponse, 0, len(mods))
	for _, p := range mods {
		pi := p.Info()
		info = append(info, ModuleResponse{
			Name:        pi.Name,
			Version:     pi.Version,
			Description: pi.Description,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
