package overview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/camhub/camhub/internal/apierr"
	"github.com/camhub/camhub/internal/fleet"
	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Actions the hub will forward to a node.
var allowedActions = map[string]bool{
	"start":    true,
	"stop":     true,
	"snapshot": true,
}

// Routes implements plugin.HTTPProvider. Paths are mounted under /api.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/nodes/{id}/status", Handler: m.handleNodeStatus},
		{Method: "POST", Path: "/nodes/{id}/actions/{action}", Handler: m.handleNodeAction},
		{Method: "GET", Path: "/management/overview", Handler: m.handleOverview},
	}
}

// handleNodeStatus probes one node's health endpoint on demand.
//
//	@Summary		Node status
//	@Description	Probes the node's health endpoint and returns the live result.
//	@Tags			overview
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Node ID"
//	@Success		200	{object}	models.ProbeResult
//	@Failure		404	{object}	apierr.ErrorEnvelope
//	@Failure		401	{object}	apierr.ErrorEnvelope
//	@Failure		501	{object}	apierr.ErrorEnvelope
//	@Failure		503	{object}	apierr.ErrorEnvelope
//	@Router			/nodes/{id}/status [get]
func (m *Module) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := m.fleet.GetNode(r.Context(), id)
	if err != nil {
		m.writeDirectoryError(w, id, err)
		return
	}

	res := m.prober.Health(r.Context(), n)
	if res.Failed() {
		m.publishFailure(r.Context(), res)
		writeProbeError(w, res)
		return
	}

	// Deep status: nodes declaring the capability also get their ready
	// and metrics endpoints checked. Extras are informational; their
	// failure never fails the call.
	for name, probeFn := range map[string]func(context.Context, *models.Node) models.ProbeResult{
		"ready":   m.prober.Ready,
		"metrics": m.prober.Metrics,
	} {
		if !n.HasCapability(name) {
			continue
		}
		extra := probeFn(r.Context(), n)
		if res.Details == nil {
			res.Details = make(map[string]any, 2)
		}
		res.Details[name] = map[string]any{
			"reachable":   extra.Reachable,
			"http_status": extra.HTTPStatus,
			"latency_ms":  extra.LatencyMs,
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// handleNodeAction forwards a control action to a node.
//
//	@Summary		Forward node action
//	@Description	Forwards start, stop, or snapshot to the node and relays the downstream status and body.
//	@Tags			overview
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Node ID"
//	@Param			action	path		string	true	"Action name"	Enums(start, stop, snapshot)
//	@Success		200		"Downstream node response, relayed verbatim"
//	@Failure		400		{object}	apierr.ErrorEnvelope
//	@Failure		404		{object}	apierr.ErrorEnvelope
//	@Failure		503		{object}	apierr.ErrorEnvelope
//	@Router			/nodes/{id}/actions/{action} [post]
func (m *Module) handleNodeAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.PathValue("action")

	if !allowedActions[action] {
		apierr.WriteError(w, http.StatusBadRequest, apierr.APIError{
			Code:    apierr.CodeValidationError,
			Message: "unknown action " + strconv.Quote(action),
			NodeID:  id,
			Details: map[string]any{"action": "must be start, stop, or snapshot"},
		})
		return
	}

	n, err := m.fleet.GetNode(r.Context(), id)
	if err != nil {
		m.writeDirectoryError(w, id, err)
		return
	}

	// Optional JSON body is passed through to the node untouched.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		apierr.ValidationError(w, "cannot read request body", nil)
		return
	}

	res := m.prober.Action(r.Context(), n, action, body)
	if res.Failed() {
		m.publishFailure(r.Context(), res.ProbeResult)
		writeProbeError(w, res.ProbeResult)
		return
	}

	// Relay the downstream response verbatim. Action bodies are opaque
	// to the hub: a snapshot returns image/jpeg, start/stop return JSON.
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(res.HTTPStatus)
	_, _ = w.Write(res.Body)
}

// handleOverview returns the aggregated fleet snapshot.
//
//	@Summary		Fleet overview
//	@Description	Probes every registered node concurrently and returns per-node status plus counters.
//	@Tags			overview
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	models.OverviewSummary
//	@Router			/management/overview [get]
func (m *Module) handleOverview(w http.ResponseWriter, r *http.Request) {
	summary, err := m.Overview(r.Context())
	if err != nil {
		m.logger.Error("overview aggregation failed", zap.Error(err))
		apierr.InternalError(w, "failed to aggregate fleet status")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (m *Module) writeDirectoryError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, fleet.ErrNotFound) {
		apierr.NotFound(w, id)
		return
	}
	m.logger.Error("node lookup failed", zap.String("node_id", id), zap.Error(err))
	apierr.InternalError(w, "node lookup failed")
}

// writeProbeError maps a classified probe failure onto the error envelope.
func writeProbeError(w http.ResponseWriter, res models.ProbeResult) {
	status, code := http.StatusServiceUnavailable, apierr.CodeNodeUnreachable
	switch res.Error.Kind {
	case models.ErrKindUnauthorized:
		status, code = http.StatusUnauthorized, apierr.CodeNodeUnauthorized
	case models.ErrKindTransportUnsupported:
		status, code = http.StatusNotImplemented, apierr.CodeTransportUnsupported
	case models.ErrKindValidation:
		status, code = http.StatusBadRequest, apierr.CodeValidationError
	}

	details := map[string]any{
		"endpoint":   res.Endpoint,
		"latency_ms": res.LatencyMs,
	}
	for k, v := range res.Details {
		details[k] = v
	}

	apierr.WriteError(w, status, apierr.APIError{
		Code:    code,
		Message: res.Error.Reason,
		NodeID:  res.NodeID,
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
