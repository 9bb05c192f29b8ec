package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// pingHost runs a short unprivileged ICMP burst against an unreachable
// host to help the operator tell "host down" from "service down". Purely
// diagnostic: the result never changes probe classification.
func pingHost(ctx context.Context, host string) (map[string]any, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return nil, err
	}
	pinger.SetPrivileged(false)
	pinger.Count = 3
	pinger.Timeout = 2 * time.Second

	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, err
	}

	stats := pinger.Statistics()
	return map[string]any{
		"packets_sent":     stats.PacketsSent,
		"packets_received": stats.PacketsRecv,
		"packet_loss":      stats.PacketLoss,
		"avg_rtt_ms":       float64(stats.AvgRtt) / float64(time.Millisecond),
	}, nil
}
