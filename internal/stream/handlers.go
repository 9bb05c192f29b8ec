package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camhub/camhub/internal/apierr"
	"github.com/camhub/camhub/internal/version"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider. Paths are mounted under /api.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/stream/mjpeg", Handler: m.handleMJPEG},
		{Method: "POST", Path: "/actions/{action}", Handler: m.handleAction},
	}
}

// RootRoutes implements plugin.RootRouteProvider. These are the paths a
// hub probes on this node, so they live at the root, unauthenticated.
func (m *Module) RootRoutes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/health", Handler: m.handleHealth},
		{Method: "GET", Path: "/ready", Handler: m.handleReady},
	}
}

// HealthResponse is the node wire contract returned by GET /health.
type HealthResponse struct {
	Status          string `json:"status" example:"ok"`
	StreamAvailable bool   `json:"stream_available"`
	Version         string `json:"version" example:"0.1.0"`
}

// handleHealth reports node health to a probing hub.
//
//	@Summary		Node health
//	@Description	Returns node health and stream availability. Probed by hubs.
//	@Tags			stream
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (m *Module) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		StreamAvailable: m.StreamAvailable(),
		Version:         version.Short(),
	})
}

// handleReady reports whether the frame source can produce frames.
func (m *Module) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !m.source.Alive() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleAction executes a local control action.
//
//	@Summary		Camera action
//	@Description	Starts or stops streaming, or captures a single JPEG snapshot.
//	@Tags			stream
//	@Produce		json
//	@Security		BearerAuth
//	@Param			action	path	string	true	"Action name"	Enums(start, stop, snapshot)
//	@Success		200
//	@Failure		400	{object}	apierr.ErrorEnvelope
//	@Failure		503	{object}	apierr.ErrorEnvelope
//	@Router			/actions/{action} [post]
func (m *Module) handleAction(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	switch action {
	case "start":
		m.running.Store(true)
		m.logger.Info("stream started by action")
		writeJSON(w, http.StatusOK, map[string]string{"result": "started"})
	case "stop":
		m.running.Store(false)
		m.logger.Info("stream stopped by action")
		writeJSON(w, http.StatusOK, map[string]string{"result": "stopped"})
	case "snapshot":
		m.handleSnapshot(w, r)
	default:
		apierr.WriteError(w, http.StatusBadRequest, apierr.APIError{
			Code:    apierr.CodeValidationError,
			Message: fmt.Sprintf("unknown action %q", action),
			Details: map[string]any{"action": "must be start, stop, or snapshot"},
		})
	}
}

// handleSnapshot captures one frame and returns it as a JPEG image.
func (m *Module) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	frame, err := m.source.Next(ctx)
	if err != nil {
		m.logger.Error("snapshot capture failed", zap.Error(err))
		apierr.WriteError(w, http.StatusServiceUnavailable, apierr.APIError{
			Code:    apierr.CodeStreamUnavailable,
			Message: "frame source produced no frame",
		})
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(frame.Data)))
	_, _ = w.Write(frame.Data)
}

// handleMJPEG streams frames as multipart/x-mixed-replace until the
// client disconnects or the stream is stopped.
//
//	@Summary		MJPEG stream
//	@Description	Streams JPEG frames as multipart/x-mixed-replace.
//	@Tags			stream
//	@Produce		mpfd
//	@Security		BearerAuth
//	@Success		200
//	@Failure		503	{object}	apierr.ErrorEnvelope
//	@Router			/stream/mjpeg [get]
func (m *Module) handleMJPEG(w http.ResponseWriter, r *http.Request) {
	if !m.running.Load() {
		apierr.WriteError(w, http.StatusServiceUnavailable, apierr.APIError{
			Code:    apierr.CodeStreamUnavailable,
			Message: "stream is stopped",
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		apierr.InternalError(w, "streaming unsupported by connection")
		return
	}

	const boundary = "camhubframe"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	m.logger.Debug("mjpeg client connected", zap.String("remote", r.RemoteAddr))
	defer m.logger.Debug("mjpeg client disconnected", zap.String("remote", r.RemoteAddr))

	for m.running.Load() {
		frame, err := m.source.Next(r.Context())
		if err != nil {
			return // client gone or source dead
		}

		if _, err := fmt.Fprintf(w,
			"--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
			boundary, len(frame.Data),
		); err != nil {
			return
		}
		if _, err := w.Write(frame.Data); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
