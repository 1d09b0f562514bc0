package exporting

import (
	"fmt"
	"time"

	"AnomalyForge/pkg/injecting"
	"AnomalyForge/pkg/metrics"
)

const (
	// DiskSlots and ProcessSlots bound the per-row width; missing entries are zero-filled.
	DiskSlots    = 5
	ProcessSlots = 10

	TimestampLayout = "2006-01-02 15:04:05"
	ColTimestamp    = "timestamp"
)

var (
	columns       = buildColumns()
	metricColumns = buildMetricSet(columns)
)

func buildColumns() []string {
	cols := []string{
		ColTimestamp, "cpu_percent", "ctx_switches", "interrupts", "soft_interrupts",
		"total_memory", "available_memory", "used_memory", "memory_percent",
		"total_swap", "used_swap", "swap_percent",
	}
	for k := 0; k < DiskSlots; k++ {
		cols = append(cols,
			fmt.Sprintf("total_disk%d", k),
			fmt.Sprintf("used_disk%d", k),
			fmt.Sprintf("disk%d_percent", k),
		)
	}
	cols = append(cols, "bytes_sent", "bytes_recv", "packets_sent", "packets_recv")
	for k := 0; k < ProcessSlots; k++ {
		cols = append(cols, fmt.Sprintf("process%d_memory_percent", k))
	}
	return cols
}

func buildMetricSet(cols []string) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c != ColTimestamp {
			set[c] = true
		}
	}
	return set
}

func isMetricColumn(col string) bool {
	return metricColumns[col]
}

// Columns returns the fixed flattened column order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// FlattenerOption configures a Flattener.
type FlattenerOption func(*Flattener)

// WithClock replaces the anchor clock used for synthetic timestamps.
func WithClock(now func() time.Time) FlattenerOption {
	return func(f *Flattener) {
		f.now = now
	}
}

// Flattener turns windows into fixed-width rows. Each window is re-timed as a
// continuous series starting at now and advancing one second per sample.
type Flattener struct {
	now func() time.Time
}

func NewFlattener(opts ...FlattenerOption) *Flattener {
	f := &Flattener{now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Rows flattens every sample of w in order.
func (f *Flattener) Rows(w metrics.Window) []Record {
	anchor := f.now()
	rows := make([]Record, len(w))
	for i := range w {
		rows[i] = FlattenSample(&w[i], anchor.Add(time.Duration(i)*time.Second))
	}
	return rows
}

// Flatten builds the labeled record for one window.
func (f *Flattener) Flatten(index string, w metrics.Window, label injecting.Class, focus []int) LabeledRecord {
	return LabeledRecord{
		Index: index,
		Rows:  f.Rows(w),
		Label: label,
		Focus: focus,
	}
}

// FlattenSample produces one row stamped with ts.
func FlattenSample(s *metrics.Sample, ts time.Time) Record {
	r := make(Record, len(columns))
	r[ColTimestamp] = ts.Format(TimestampLayout)
	r["cpu_percent"] = s.CPU.Percent
	r["ctx_switches"] = s.CPU.Stats.CtxSwitches
	r["interrupts"] = s.CPU.Stats.Interrupts
	r["soft_interrupts"] = s.CPU.Stats.SoftInterrupts

	m := s.Memory
	r["total_memory"] = m.TotalGB
	r["available_memory"] = m.AvailableGB
	r["used_memory"] = m.UsedGB
	r["memory_percent"] = m.Percent
	r["total_swap"] = m.Swap.TotalGB
	r["used_swap"] = m.Swap.UsedGB
	r["swap_percent"] = m.Swap.Percent

	for k := 0; k < DiskSlots; k++ {
		var d metrics.DiskInfo
		if k < len(s.Disks) {
			d = s.Disks[k]
		}
		r[fmt.Sprintf("total_disk%d", k)] = d.TotalGB
		r[fmt.Sprintf("used_disk%d", k)] = d.UsedGB
		r[fmt.Sprintf("disk%d_percent", k)] = d.Percent
	}

	r["bytes_sent"] = s.Network.BytesSentKB
	r["bytes_recv"] = s.Network.BytesRecvKB
	r["packets_sent"] = s.Network.PacketsSent
	r["packets_recv"] = s.Network.PacketsRecv

	for k := 0; k < ProcessSlots; k++ {
		var p float64
		if k < len(s.Processes) {
			p = s.Processes[k].MemoryPercent
		}
		r[fmt.Sprintf("process%d_memory_percent", k)] = p
	}
	return r
}
