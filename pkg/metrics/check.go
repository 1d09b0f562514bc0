package metrics

import (
	"errors"
	"fmt"
	"math"
)

// PercentTolerance is the slack allowed between a stored percent and used/total*100.
const PercentTolerance = 0.01

// sizeTolerance absorbs float error on GB sums.
const sizeTolerance = 1e-6

// CheckMemory verifies used <= total, available = total - used and the percent ratio.
func (s *Sample) CheckMemory() error {
	m := s.Memory
	if m.TotalGB <= 0 {
		return nil
	}
	var errs []error
	if m.UsedGB > m.TotalGB+sizeTolerance {
		errs = append(errs, fmt.Errorf("memory used %.4f exceeds total %.4f", m.UsedGB, m.TotalGB))
	}
	if math.Abs(m.AvailableGB-(m.TotalGB-m.UsedGB)) > sizeTolerance {
		errs = append(errs, fmt.Errorf("memory available %.4f != total-used %.4f", m.AvailableGB, m.TotalGB-m.UsedGB))
	}
	if math.Abs(m.UsedGB/m.TotalGB*100-m.Percent) >= PercentTolerance {
		errs = append(errs, fmt.Errorf("memory percent %.4f != used/total %.4f", m.Percent, m.UsedGB/m.TotalGB*100))
	}
	return errors.Join(errs...)
}

// CheckSwap verifies used + free = total and the percent ratio.
func (s *Sample) CheckSwap() error {
	sw := s.Memory.Swap
	if sw.TotalGB <= 0 {
		return nil
	}
	var errs []error
	if math.Abs(sw.UsedGB+sw.FreeGB-sw.TotalGB) > sizeTolerance {
		errs = append(errs, fmt.Errorf("swap used+free %.4f != total %.4f", sw.UsedGB+sw.FreeGB, sw.TotalGB))
	}
	if math.Abs(sw.UsedGB/sw.TotalGB*100-sw.Percent) >= PercentTolerance {
		errs = append(errs, fmt.Errorf("swap percent %.4f != used/total %.4f", sw.Percent, sw.UsedGB/sw.TotalGB*100))
	}
	return errors.Join(errs...)
}

// CheckDisks verifies used <= total and the percent ratio on every sized disk.
func (s *Sample) CheckDisks() error {
	var errs []error
	for i, d := range s.Disks {
		if d.TotalGB <= 0 {
			continue
		}
		if d.UsedGB > d.TotalGB+sizeTolerance {
			errs = append(errs, fmt.Errorf("disk %d (%s) used %.4f exceeds total %.4f", i, d.Mountpoint, d.UsedGB, d.TotalGB))
		}
		if math.Abs(d.UsedGB/d.TotalGB*100-d.Percent) >= PercentTolerance {
			errs = append(errs, fmt.Errorf("disk %d (%s) percent %.4f != used/total %.4f", i, d.Mountpoint, d.Percent, d.UsedGB/d.TotalGB*100))
		}
	}
	return errors.Join(errs...)
}
