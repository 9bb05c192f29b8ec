// Package testutil provides shared test fixtures for CamHub modules.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/camhub/camhub/pkg/models"
)

// NewNode returns a Node with sensible defaults, suitable for test fixtures.
// Override individual fields via options or after creation as needed.
func NewNode(opts ...func(*models.Node)) models.Node {
	n := models.Node{
		ID:        uuid.New().String(),
		Name:      "test-node",
		BaseURL:   "http://192.168.1.50:8000",
		Auth:      models.AuthConfig{Type: models.AuthNone},
		Transport: models.TransportHTTP,
		CreatedAt: time.Now().UTC(),
		LastSeen:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) { n.ID = id }
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) { n.Name = name }
}

// WithBaseURL sets the node's base URL.
func WithBaseURL(u string) func(*models.Node) {
	return func(n *models.Node) { n.BaseURL = u }
}

// WithBearer sets bearer auth with the given token.
func WithBearer(token string) func(*models.Node) {
	return func(n *models.Node) {
		n.Auth = models.AuthConfig{Type: models.AuthBearer, Token: token}
	}
}

// WithTransport sets the node transport.
func WithTransport(t models.Transport) func(*models.Node) {
	return func(n *models.Node) { n.Transport = t }
}

// WithCapabilities sets the node's capability list.
func WithCapabilities(caps ...string) func(*models.Node) {
	return func(n *models.Node) { n.Capabilities = caps }
}

// WithLabels sets the node's labels.
func WithLabels(labels map[string]string) func(*models.Node) {
	return func(n *models.Node) { n.Labels = labels }
}
