package overview

import (
	"context"
	"sync"
	"time"

	"github.com/camhub/camhub/pkg/models"
	"github.com/camhub/camhub/pkg/plugin"
	"go.uber.org/zap"
)

// Event topics published by the overview module.
const (
	TopicProbeFailed = "camhub.overview.probe.failed"
)

// Overview probes every registered node concurrently and aggregates the
// results into a single snapshot. Per-node failures are recorded in the
// corresponding entry; the only error returned is a registry read
// failure. Worker count bounds concurrency so a large fleet doesn't open
// hundreds of sockets at once.
func (m *Module) Overview(ctx context.Context) (*models.OverviewSummary, error) {
	nodes, err := m.fleet.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.NodeStatusEntry, len(nodes))
	sem := make(chan struct{}, m.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, n := range nodes {
		wg.Add(1)
		go func(i int, n models.Node) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entries[i] = m.checkNode(ctx, &n)
		}(i, n)
	}
	wg.Wait()

	summary := &models.OverviewSummary{
		TotalNodes:  len(nodes),
		PerNode:     entries,
		GeneratedAt: time.Now().UTC(),
	}
	for _, e := range entries {
		if e.Status != "ok" {
			summary.UnavailableNodes++
		}
		if e.StreamAvailable {
			summary.StreamAvailableNodes++
		}
	}
	return summary, nil
}

// checkNode runs one health probe and folds it into an overview entry.
func (m *Module) checkNode(ctx context.Context, n *models.Node) models.NodeStatusEntry {
	res := m.prober.Health(ctx, n)

	status := "ok"
	if res.Failed() {
		status = "error"
		m.publishFailure(ctx, res)
		m.logger.Debug("node probe failed",
			zap.String("node_id", n.ID),
			zap.String("kind", string(res.Error.Kind)),
			zap.String("reason", res.Error.Reason),
		)
	}

	return models.NodeStatusEntry{
		NodeID:          n.ID,
		Name:            n.Name,
		Status:          status,
		StreamAvailable: res.StreamAvailable(),
		Health:          res,
	}
}

func (m *Module) publishFailure(ctx context.Context, res models.ProbeResult) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:   TopicProbeFailed,
		Source:  "overview",
		Payload: res,
	})
}
