package injecting

import "AnomalyForge/pkg/metrics"

// maxHiddenProcessCPU caps the summed cpu of the visible anomalous processes under Load-Process.
const maxHiddenProcessCPU = 20.0

// loadProcess raises system cpu while the visible processes stay nearly idle.
func (inj *Injector) loadProcess(w metrics.Window) {
	for i := range w {
		s := &w[i]
		s.CPU.Percent = metrics.Round2(inj.uniform(80, 100))

		procs := s.Processes
		if len(procs) == 0 {
			inj.skip(LoadProcess, SkipNoProcesses)
			continue
		}

		for j := range procs {
			procs[j].CPUPercent = 0
		}
		anomalous := inj.pick(len(procs), inj.anomalousCount(len(procs)))
		var sum float64
		for _, j := range anomalous {
			procs[j].CPUPercent = inj.uniform(0, 2)
			sum += procs[j].CPUPercent
		}
		if sum >= maxHiddenProcessCPU {
			scale := maxHiddenProcessCPU / sum
			for _, j := range anomalous {
				procs[j].CPUPercent *= scale
			}
		}
	}
}

// cpuStorm drives cpu and memory pressure up together.
func (inj *Injector) cpuStorm(w metrics.Window) {
	for i := range w {
		s := &w[i]
		s.CPU.Percent = metrics.Round2(inj.uniform(85, 100))
		if !setMemoryPercent(&s.Memory, metrics.Round2(inj.uniform(90, 100))) {
			inj.skip(CPUStorm, SkipZeroMemory)
		}
	}
}
