package collecting

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"

	"AnomalyForge/pkg/metrics"
)

type Network struct{}

func NewNetwork() *Network      { return &Network{} }
func (c *Network) Name() string { return "Network" }
func (c *Network) Close() error { return nil }

// Collect records host-wide cumulative counters.
func (c *Network) Collect(ctx context.Context, s *metrics.Sample) error {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return fmt.Errorf("network counters: %w", err)
	}
	if len(stats) == 0 {
		return nil
	}
	total := stats[0]
	s.Network = metrics.NetworkInfo{
		BytesSentKB: float64(total.BytesSent) / bytesPerKilobyte,
		BytesRecvKB: float64(total.BytesRecv) / bytesPerKilobyte,
		PacketsSent: int64(total.PacketsSent),
		PacketsRecv: int64(total.PacketsRecv),
	}
	return nil
}
