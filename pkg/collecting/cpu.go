package collecting

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"AnomalyForge/pkg/metrics"
	"AnomalyForge/pkg/probing"
)

// cpuSampleWindow is how long utilization is measured for each sample.
const cpuSampleWindow = 100 * time.Millisecond

type CPU struct {
	statPath string
	window   time.Duration
	model    string
}

func NewCPU() *CPU {
	return &CPU{statPath: probing.ProcStat, window: cpuSampleWindow}
}

func (c *CPU) Name() string { return "CPU" }
func (c *CPU) Close() error { return nil }

func (c *CPU) Collect(ctx context.Context, s *metrics.Sample) error {
	pct, err := cpu.PercentWithContext(ctx, c.window, false)
	if err != nil {
		return fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) > 0 {
		s.CPU.Percent = pct[0]
	}

	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		s.CPU.CPUCount = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.CPU.LogicalCPUCount = n
	}

	s.CPU.Model = c.model
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		if c.model == "" {
			c.model = infos[0].ModelName
		}
		s.CPU.Model = c.model
		if infos[0].Mhz > 0 {
			mhz := infos[0].Mhz
			s.CPU.Freq = &mhz
		}
	}
	if s.CPU.Model == "" {
		s.CPU.Model = unknownValue
	}

	stats, err := readCPUStats(c.statPath)
	if err != nil {
		return fmt.Errorf("cpu stats: %w", err)
	}
	s.CPU.Stats = stats
	return nil
}

// readCPUStats reads scheduler counters from /proc/stat. The kernel does not
// count syscalls there, so Syscalls stays zero.
func readCPUStats(path string) (metrics.CPUStats, error) {
	lines, err := probing.FileLines(path)
	if err != nil {
		return metrics.CPUStats{}, err
	}
	counters, err := probing.FieldCounters(lines, "ctxt", "intr", "softirq")
	if err != nil {
		return metrics.CPUStats{}, err
	}
	return metrics.CPUStats{
		CtxSwitches:    counters["ctxt"],
		Interrupts:     counters["intr"],
		SoftInterrupts: counters["softirq"],
	}, nil
}
