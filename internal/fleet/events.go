package fleet

import "github.com/camhub/camhub/pkg/models"

// Event topics published by the fleet module.
const (
	TopicNodeCreated = "camhub.fleet.node.created"
	TopicNodeUpdated = "camhub.fleet.node.updated"
	TopicNodeDeleted = "camhub.fleet.node.deleted"
)

// NodeEvent is the payload for all fleet node lifecycle events.
type NodeEvent struct {
	Node models.Node `json:"node"`
}
