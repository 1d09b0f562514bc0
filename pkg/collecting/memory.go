package collecting

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"AnomalyForge/pkg/metrics"
)

type Memory struct{}

func NewMemory() *Memory       { return &Memory{} }
func (c *Memory) Name() string { return "Memory" }
func (c *Memory) Close() error { return nil }

func (c *Memory) Collect(ctx context.Context, s *metrics.Sample) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("virtual memory: %w", err)
	}
	s.Memory = metrics.MemoryInfo{
		TotalGB:     gigabytes(vm.Total),
		AvailableGB: gigabytes(vm.Available),
		UsedGB:      gigabytes(vm.Used),
		Percent:     vm.UsedPercent,
		ActiveGB:    gigabytes(vm.Active),
		InactiveGB:  gigabytes(vm.Inactive),
		BuffersGB:   gigabytes(vm.Buffers),
		CachedGB:    gigabytes(vm.Cached),
	}

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("swap memory: %w", err)
	}
	s.Memory.Swap = metrics.SwapInfo{
		TotalGB: gigabytes(swap.Total),
		UsedGB:  gigabytes(swap.Used),
		FreeGB:  gigabytes(swap.Free),
		Percent: swap.UsedPercent,
	}
	return nil
}

func gigabytes(b uint64) float64 {
	return float64(b) / bytesPerGigabyte
}
