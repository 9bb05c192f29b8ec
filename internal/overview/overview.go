// Package overview implements status aggregation across the registered
// camera fleet: single-node status checks, action forwarding, and the
// management overview that fans probes out across all nodes.
package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/camhub/camhub/internal/netguard"
	"github.com/camhub/camhub/internal/probe"
	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// NodeDirectory is the slice of the fleet module this module consumes.
type NodeDirectory interface {
	GetNode(ctx context.Context, id string) (*models.Node, error)
	ListNodes(ctx context.Context) ([]models.Node, error)
}

// Config holds overview module configuration.
type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	AllowPrivateIPs bool          `mapstructure:"allow_private_ips"`
	ICMPDiagnostics bool          `mapstructure:"icmp_diagnostics"`
}

// DefaultConfig returns the default overview configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		ProbeTimeout: 5 * time.Second,
		MaxWorkers:   8,
	}
}

// nodeProber is the probe surface this module uses. Satisfied by
// *probe.Prober; narrowed so tests can swap in a canned prober.
type nodeProber interface {
	Health(ctx context.Context, n *models.Node) models.ProbeResult
	Ready(ctx context.Context, n *models.Node) models.ProbeResult
	Metrics(ctx context.Context, n *models.Node) models.ProbeResult
	Action(ctx context.Context, n *models.Node, action string, body []byte) probe.ForwardResult
}

// Module implements the status aggregation plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	fleet  NodeDirectory
	prober nodeProber
	bus    plugin.EventBus
}

// New creates a new overview plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "overview",
		Version:      "0.1.0",
		Description:  "Fleet status aggregation and action forwarding",
		Dependencies: []string{"fleet"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal overview config: %w", err)
		}
	}
	if m.cfg.MaxWorkers <= 0 {
		m.cfg.MaxWorkers = 8
	}
	if m.cfg.ProbeTimeout <= 0 {
		m.cfg.ProbeTimeout = 5 * time.Second
	}

	fleetPlugin, ok := deps.Plugins.Resolve("fleet")
	if !ok {
		return fmt.Errorf("overview: fleet module not available")
	}
	dir, ok := fleetPlugin.(NodeDirectory)
	if !ok {
		return fmt.Errorf("overview: fleet module does not expose a node directory")
	}
	m.fleet = dir

	guard := netguard.New(m.cfg.AllowPrivateIPs)
	m.prober = probe.New(guard, probe.Options{
		Timeout:         m.cfg.ProbeTimeout,
		ICMPDiagnostics: m.cfg.ICMPDiagnostics,
		Logger:          m.logger.Named("probe"),
	})

	if m.cfg.AllowPrivateIPs {
		m.logger.Warn("private address probing enabled; loopback and link-local remain blocked")
	}

	m.logger.Info("overview module initialized",
		zap.Duration("probe_timeout", m.cfg.ProbeTimeout),
		zap.Int("max_workers", m.cfg.MaxWorkers),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("overview module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("overview module stopped")
	return nil
}
