package injecting

import "AnomalyForge/pkg/metrics"

const (
	highMemThreshold = 20.0
	doubledMemCap    = 30.0
)

// processHighCPU picks one killer process per sample.
func (inj *Injector) processHighCPU(w metrics.Window) {
	for i := range w {
		procs := w[i].Processes
		if len(procs) == 0 {
			inj.skip(PHighCPU, SkipNoProcesses)
			continue
		}
		killer := inj.rng.IntN(len(procs))
		for j := range procs {
			if j == killer {
				procs[j].CPUPercent = metrics.Round2(inj.uniform(50, 100))
			} else {
				procs[j].CPUPercent = metrics.Round2(inj.uniform(0, 10))
			}
		}
	}
}

// processHighMem inflates a share of processes and guarantees one above the threshold.
func (inj *Injector) processHighMem(w metrics.Window) {
	for i := range w {
		procs := w[i].Processes
		if len(procs) == 0 {
			inj.skip(PHighMem, SkipNoProcesses)
			continue
		}

		for _, j := range inj.pick(len(procs), inj.anomalousCount(len(procs))) {
			if procs[j].MemoryPercent < 10 {
				procs[j].MemoryPercent = min(procs[j].MemoryPercent*2, doubledMemCap)
			} else {
				procs[j].MemoryPercent = metrics.Round2(inj.uniform(highMemThreshold, 50))
			}
		}

		high := false
		for _, p := range procs {
			if p.MemoryPercent > highMemThreshold {
				high = true
				break
			}
		}
		if !high {
			j := inj.rng.IntN(len(procs))
			procs[j].MemoryPercent = metrics.Round2(inj.uniform(highMemThreshold+0.01, 50))
		}
	}
}
