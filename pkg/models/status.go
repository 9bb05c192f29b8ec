package models

import "time"

// ErrorKind classifies a failed probe outcome.
type ErrorKind string

const (
	ErrKindUnreachable          ErrorKind = "UNREACHABLE"
	ErrKindUnauthorized         ErrorKind = "UNAUTHORIZED"
	ErrKindTransportUnsupported ErrorKind = "TRANSPORT_UNSUPPORTED"
	ErrKindValidation           ErrorKind = "VALIDATION_ERROR"
)

// ProbeError carries the classified failure of a probe. Probe failures
// are data, not Go errors: one bad node must never unwind an aggregate
// overview call.
type ProbeError struct {
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason,omitempty"`
}

// ProbeResult is the outcome of one outbound check against a node.
// Ephemeral: never persisted.
type ProbeResult struct {
	NodeID     string         `json:"node_id"`
	Endpoint   string         `json:"endpoint" example:"health"`
	Reachable  bool           `json:"reachable"`
	HTTPStatus int            `json:"http_status,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Error      *ProbeError    `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	LatencyMs  float64        `json:"latency_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// Failed reports whether the probe ended in a classified error.
func (r *ProbeResult) Failed() bool {
	return r.Error != nil
}

// StreamAvailable reports whether a reachable node's health payload
// advertises an active stream.
func (r *ProbeResult) StreamAvailable() bool {
	if !r.Reachable || r.Payload == nil {
		return false
	}
	v, ok := r.Payload["stream_available"].(bool)
	return ok && v
}

// NodeStatusEntry is one node's row in an overview.
type NodeStatusEntry struct {
	NodeID          string      `json:"node_id"`
	Name            string      `json:"name"`
	Status          string      `json:"status" example:"ok"` // "ok" or "error"
	StreamAvailable bool        `json:"stream_available"`
	Health          ProbeResult `json:"health"`
}

// OverviewSummary is the aggregated multi-node status snapshot returned
// to an operator in one call. Computed per request, never persisted.
type OverviewSummary struct {
	TotalNodes           int               `json:"total_nodes"`
	UnavailableNodes     int               `json:"unavailable_nodes"`
	StreamAvailableNodes int               `json:"stream_available_nodes"`
	PerNode              []NodeStatusEntry `json:"per_node"`
	GeneratedAt          time.Time         `json:"generated_at"`
}
