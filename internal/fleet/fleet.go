// Package fleet implements the camera node registry: the management
// plane's source of truth for which remote camera nodes exist, how to
// reach them, and what they claim to be capable of.
package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Config holds fleet module configuration.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Storage  string `mapstructure:"storage"`   // "sqlite" or "file"
	FilePath string `mapstructure:"file_path"` // used when storage is "file"
}

// DefaultConfig returns the default fleet configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Storage:  "sqlite",
		FilePath: "./data/nodes.json",
	}
}

// Module implements the node registry plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  Store
	bus    plugin.EventBus
	now    func() time.Time
}

// New creates a new fleet plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "fleet",
		Version:     "0.1.0",
		Description: "Camera node registry",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal fleet config: %w", err)
		}
	}

	switch m.cfg.Storage {
	case "file":
		fs, err := NewFileStore(m.cfg.FilePath)
		if err != nil {
			return fmt.Errorf("open file node store: %w", err)
		}
		m.store = fs
	case "", "sqlite":
		if deps.Store == nil {
			return fmt.Errorf("fleet: sqlite storage selected but no shared store available")
		}
		if err := deps.Store.Migrate(context.Background(), "fleet", migrations()); err != nil {
			return fmt.Errorf("fleet migrations: %w", err)
		}
		m.store = NewSQLNodeStore(deps.Store.DB())
	default:
		return fmt.Errorf("fleet: unknown storage backend %q", m.cfg.Storage)
	}

	m.logger.Info("fleet module initialized", zap.String("storage", m.cfg.Storage))
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("fleet module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("fleet module stopped")
	return nil
}

// CreateNode normalizes, validates, and persists a new node. A missing
// id is assigned a fresh UUID. Returns the stored record.
func (m *Module) CreateNode(ctx context.Context, n models.Node) (*models.Node, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	n.CreatedAt = now
	n.LastSeen = now

	if err := m.store.Create(ctx, &n); err != nil {
		return nil, err
	}
	m.publish(ctx, TopicNodeCreated, n)
	m.logger.Info("node registered",
		zap.String("node_id", n.ID),
		zap.String("base_url", n.BaseURL),
	)
	return &n, nil
}

// GetNode returns a node by id.
func (m *Module) GetNode(ctx context.Context, id string) (*models.Node, error) {
	return m.store.Get(ctx, id)
}

// ListNodes returns all registered nodes in insertion order.
func (m *Module) ListNodes(ctx context.Context) ([]models.Node, error) {
	return m.store.List(ctx)
}

// nodePatch is the partial-update shape accepted by UpdateNode. Pointer
// fields distinguish "absent" from "set to zero value".
type nodePatch struct {
	ID           *string            `json:"id"`
	Name         *string            `json:"name"`
	BaseURL      *string            `json:"base_url"`
	Auth         *models.AuthConfig `json:"auth"`
	Labels       map[string]string  `json:"labels"`
	Capabilities *[]string          `json:"capabilities"`
	Transport    *models.Transport  `json:"transport"`
}

// UpdateNode merges a partial JSON update into an existing node,
// re-validates the merged record, and persists it. The id is immutable;
// a patch that tries to change it is rejected.
func (m *Module) UpdateNode(ctx context.Context, id string, body []byte) (*models.Node, error) {
	existing, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch nodePatch
	if err := unmarshalStrict(body, &patch); err != nil {
		return nil, models.ValidationErrors{{Field: "body", Reason: err.Error()}}
	}
	if patch.ID != nil && *patch.ID != id {
		return nil, models.ValidationErrors{{Field: "id", Reason: "node id is immutable"}}
	}

	n := *existing
	if patch.Name != nil {
		n.Name = *patch.Name
	}
	if patch.BaseURL != nil {
		n.BaseURL = *patch.BaseURL
	}
	if patch.Auth != nil {
		n.Auth = *patch.Auth
	}
	if patch.Labels != nil {
		n.Labels = patch.Labels
	}
	if patch.Capabilities != nil {
		n.Capabilities = *patch.Capabilities
	}
	if patch.Transport != nil {
		n.Transport = *patch.Transport
	}

	n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}
	n.LastSeen = m.now().UTC()

	if err := m.store.Update(ctx, &n); err != nil {
		return nil, err
	}
	m.publish(ctx, TopicNodeUpdated, n)
	m.logger.Info("node updated", zap.String("node_id", n.ID))
	return &n, nil
}

// DeleteNode removes a node by id.
func (m *Module) DeleteNode(ctx context.Context, id string) error {
	n, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.publish(ctx, TopicNodeDeleted, *n)
	m.logger.Info("node deleted", zap.String("node_id", id))
	return nil
}

func (m *Module) publish(ctx context.Context, topic string, n models.Node) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:   topic,
		Source:  "fleet",
		Payload: NodeEvent{Node: n},
	})
}

// unmarshalStrict decodes JSON rejecting unknown fields, so typos in a
// patch fail loudly instead of silently leaving the record unchanged.
func unmarshalStrict(data []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
