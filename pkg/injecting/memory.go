package injecting

import (
	"math"

	"AnomalyForge/pkg/metrics"
)

const (
	leakAvailableCeilingGB = 0.2
	leakMinPercent         = 95.0
)

// memLeak drains available memory below the ceiling and keeps used growing.
func (inj *Injector) memLeak(w metrics.Window) {
	for i := range w {
		m := &w[i].Memory
		if m.TotalGB <= 0 {
			inj.skip(MemLeak, SkipZeroMemory)
			continue
		}
		original := m.UsedGB

		// available is bounded so that percent cannot fall under leakMinPercent
		ceiling := math.Min(leakAvailableCeilingGB, m.TotalGB*(100-leakMinPercent)/100)
		available := floor2(inj.uniform(0, ceiling))
		setMemoryUsed(m, m.TotalGB-available)

		if m.UsedGB <= original {
			setMemoryUsed(m, original*inj.uniform(1.5, 2))
		}
	}
}

// swapThrash pushes swap usage up and carries the delta into memory used.
func (inj *Injector) swapThrash(w metrics.Window) {
	for i := range w {
		m := &w[i].Memory
		sw := &m.Swap
		if sw.TotalGB <= 0 {
			inj.skip(SwapThrash, SkipZeroSwap)
			continue
		}
		before := sw.UsedGB
		increase := math.Max(inj.uniform(0.4, 0.6)*sw.TotalGB, inj.uniform(sw.TotalGB/4, sw.TotalGB))
		setSwapUsed(sw, metrics.Round2(math.Min(before+increase, sw.TotalGB)))

		if !setMemoryUsed(m, m.UsedGB+(sw.UsedGB-before)) {
			inj.skip(SwapThrash, SkipZeroMemory)
		}
	}
}

func floor2(v float64) float64 {
	return math.Floor(v*100) / 100
}
