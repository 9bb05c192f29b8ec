package ws

import (
	"time"

	"github.com/camhub/camhub/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageNodeCreated MessageType = "node.created"
	MessageNodeUpdated MessageType = "node.updated"
	MessageNodeDeleted MessageType = "node.deleted"
	MessageProbeFailed MessageType = "probe.failed"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	NodeID    string      `json:"node_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// NodeData is the payload for node lifecycle messages.
type NodeData struct {
	Node models.Node `json:"node"`
}

// ProbeFailedData is the payload for probe.failed messages.
type ProbeFailedData struct {
	Result models.ProbeResult `json:"result"`
}
