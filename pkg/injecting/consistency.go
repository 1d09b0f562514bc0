package injecting

import "AnomalyForge/pkg/metrics"

// The helpers below keep a record algebraically consistent after a primary field moves.
// Each returns false and leaves the record untouched when its denominator is zero.

// setMemoryPercent derives used and available from percent.
func setMemoryPercent(m *metrics.MemoryInfo, percent float64) bool {
	if m.TotalGB <= 0 {
		return false
	}
	m.Percent = clamp(percent, 0, 100)
	m.UsedGB = m.TotalGB * m.Percent / 100
	m.AvailableGB = m.TotalGB - m.UsedGB
	return true
}

// setMemoryUsed derives percent and available from used, capped at total.
func setMemoryUsed(m *metrics.MemoryInfo, used float64) bool {
	if m.TotalGB <= 0 {
		return false
	}
	m.UsedGB = clamp(used, 0, m.TotalGB)
	m.AvailableGB = m.TotalGB - m.UsedGB
	m.Percent = m.UsedGB / m.TotalGB * 100
	return true
}

// setSwapUsed derives free and percent from used, capped at total.
func setSwapUsed(s *metrics.SwapInfo, used float64) bool {
	if s.TotalGB <= 0 {
		return false
	}
	s.UsedGB = clamp(used, 0, s.TotalGB)
	s.FreeGB = s.TotalGB - s.UsedGB
	s.Percent = s.UsedGB / s.TotalGB * 100
	return true
}

// setDiskPercent derives used from percent.
func setDiskPercent(d *metrics.DiskInfo, percent float64) bool {
	if d.TotalGB <= 0 {
		return false
	}
	d.Percent = clamp(percent, 0, 100)
	d.UsedGB = d.TotalGB * d.Percent / 100
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
