package ws

import (
	"context"
	"net/http"

	"github.com/camhub/camhub/internal/fleet"
	"github.com/camhub/camhub/internal/overview"
	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module implements the WebSocket event feed plugin.
type Module struct {
	logger *zap.Logger
	hub    *Hub
}

// New creates a new ws plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "ws",
		Version:     "0.1.0",
		Description: "WebSocket event feed",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.hub = NewHub(m.logger)
	m.logger.Info("ws module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	return nil
}

// Routes implements plugin.HTTPProvider. The events endpoint sits under
// /api so the server's bearer middleware guards the upgrade request.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/ws/events", Handler: m.handleEvents},
	}
}

// Subscriptions implements plugin.EventSubscriber: every fleet lifecycle
// event and every failed probe is fanned out to connected clients.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: fleet.TopicNodeCreated, Handler: m.nodeEvent(MessageNodeCreated)},
		{Topic: fleet.TopicNodeUpdated, Handler: m.nodeEvent(MessageNodeUpdated)},
		{Topic: fleet.TopicNodeDeleted, Handler: m.nodeEvent(MessageNodeDeleted)},
		{Topic: overview.TopicProbeFailed, Handler: m.probeFailed},
	}
}

func (m *Module) nodeEvent(msgType MessageType) plugin.EventHandler {
	return func(_ context.Context, event plugin.Event) {
		ne, ok := event.Payload.(fleet.NodeEvent)
		if !ok {
			return
		}
		m.hub.Broadcast(Message{
			Type:      msgType,
			NodeID:    ne.Node.ID,
			Timestamp: event.Timestamp,
			Data:      NodeData{Node: ne.Node},
		})
	}
}

func (m *Module) probeFailed(_ context.Context, event plugin.Event) {
	res, ok := event.Payload.(models.ProbeResult)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageProbeFailed,
		NodeID:    res.NodeID,
		Timestamp: event.Timestamp,
		Data:      ProbeFailedData{Result: res},
	})
}

// handleEvents upgrades the connection and streams events until the
// client disconnects.
//
//	@Summary		Event feed
//	@Description	Upgrades to WebSocket and streams node lifecycle and probe events.
//	@Tags			ws
//	@Security		BearerAuth
//	@Success		101
//	@Router			/ws/events [get]
func (m *Module) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same-host dashboards only; auth already happened in middleware.
		InsecureSkipVerify: true,
	})
	if err != nil {
		m.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan Message, 256),
		logger: m.logger,
	}
	m.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until the client disconnects.
	client.readPump(ctx)

	m.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}
