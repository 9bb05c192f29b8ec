// Package stream implements the node-side camera appliance surface:
// the /health and /ready wire contract a hub probes, an MJPEG stream,
// and the start/stop/snapshot control actions.
package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin            = (*Module)(nil)
	_ plugin.HTTPProvider      = (*Module)(nil)
	_ plugin.RootRouteProvider = (*Module)(nil)
)

// Config holds stream module configuration.
type Config struct {
	Enabled   bool `mapstructure:"enabled"`
	FrameRate int  `mapstructure:"frame_rate"` // frames per second
	Width     int  `mapstructure:"width"`
	Height    int  `mapstructure:"height"`
}

// DefaultConfig returns the default stream configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		FrameRate: 10,
		Width:     640,
		Height:    480,
	}
}

// Module implements the camera streaming plugin.
type Module struct {
	logger  *zap.Logger
	cfg     Config
	source  FrameSource
	running atomic.Bool
}

// New creates a new stream plugin instance. A nil source gets replaced
// by the synthetic test-pattern source during Init.
func New(source FrameSource) *Module {
	return &Module{source: source}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "stream",
		Version:     "0.1.0",
		Description: "Camera frame source and MJPEG streaming",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal stream config: %w", err)
		}
	}
	if m.cfg.FrameRate <= 0 {
		m.cfg.FrameRate = 10
	}

	if m.source == nil {
		m.source = NewSyntheticSource(m.cfg.Width, m.cfg.Height, m.cfg.FrameRate)
	}

	m.logger.Info("stream module initialized",
		zap.Int("frame_rate", m.cfg.FrameRate),
		zap.Int("width", m.cfg.Width),
		zap.Int("height", m.cfg.Height),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.running.Store(true)
	m.logger.Info("stream module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.running.Store(false)
	m.logger.Info("stream module stopped")
	return nil
}

// StreamAvailable reports whether the stream is running and the frame
// source is producing frames. Surfaced in /health for hub probes.
func (m *Module) StreamAvailable() bool {
	return m.running.Load() && m.source.Alive()
}
