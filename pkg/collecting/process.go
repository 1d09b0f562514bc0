package collecting

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shirou/gopsutil/v4/process"

	"AnomalyForge/pkg/metrics"
)

// ProcessCollector lists processes with any cpu or memory use. Handles are
// cached between samples so cpu percent is measured since the previous call.
type ProcessCollector struct {
	mu    sync.Mutex
	cache map[int32]*process.Process
}

func NewProcessCollector() *ProcessCollector {
	return &ProcessCollector{cache: make(map[int32]*process.Process)}
}

func (c *ProcessCollector) Name() string { return "Process" }
func (c *ProcessCollector) Close() error { return nil }

func (c *ProcessCollector) Collect(ctx context.Context, s *metrics.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("processes: %w", err)
	}

	alive := make(map[int32]bool, len(procs))
	for _, p := range procs {
		alive[p.Pid] = true
		if _, ok := c.cache[p.Pid]; !ok {
			c.cache[p.Pid] = p
		}
	}
	for pid := range c.cache {
		if !alive[pid] {
			delete(c.cache, pid)
		}
	}

	out := make([]metrics.ProcessInfo, 0, len(c.cache))
	for pid, p := range c.cache {
		cpuPct, err := p.PercentWithContext(ctx, 0)
		if err != nil {
			// exited or not readable
			continue
		}
		memPct, err := p.MemoryPercentWithContext(ctx)
		if err != nil {
			continue
		}
		if cpuPct <= 0 && memPct <= 0 {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			name = unknownValue
		}
		user, _ := p.UsernameWithContext(ctx)

		out = append(out, metrics.ProcessInfo{
			PID:           pid,
			Name:          name,
			Username:      user,
			CPUPercent:    cpuPct,
			MemoryPercent: float64(memPct),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	s.Processes = out
	return nil
}
