// Package metrics defines the typed telemetry shapes shared by the corpus, the injectors and the dataset writers.
package metrics

import (
	"math"
	"time"
)

// Record is a generic map type for flattened or loosely typed records.
type Record = map[string]interface{}

// Sample is one instant snapshot of a host, as written by the collector.
type Sample struct {
	CPU       CPUInfo       `json:"cpu_info" bson:"cpu_info"`
	Memory    MemoryInfo    `json:"memory_info" bson:"memory_info"`
	Disks     []DiskInfo    `json:"disk_info" bson:"disk_info"`
	Network   NetworkInfo   `json:"network_info" bson:"network_info"`
	Processes []ProcessInfo `json:"process_info" bson:"process_info"`
	Timestamp float64       `json:"timestamp" bson:"timestamp"`
	OS        *OSInfo       `json:"os_info,omitempty" bson:"os_info,omitempty"`
}

// OSInfo identifies the host a sample was taken on.
type OSInfo struct {
	OS        string  `json:"os" bson:"os"`
	OSRelease string  `json:"os_release" bson:"os_release"`
	BootTime  float64 `json:"boot_time" bson:"boot_time"`
}

// Time converts the epoch-seconds timestamp.
func (s *Sample) Time() time.Time {
	sec, frac := math.Modf(s.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s *Sample) Clone() Sample {
	c := *s
	if s.CPU.Freq != nil {
		f := *s.CPU.Freq
		c.CPU.Freq = &f
	}
	if s.Disks != nil {
		c.Disks = make([]DiskInfo, len(s.Disks))
		copy(c.Disks, s.Disks)
	}
	if s.Processes != nil {
		c.Processes = make([]ProcessInfo, len(s.Processes))
		copy(c.Processes, s.Processes)
	}
	if s.OS != nil {
		o := *s.OS
		c.OS = &o
	}
	return c
}

// Window is an ordered run of contiguous samples mutated as a unit.
type Window []Sample

// Clone deep-copies every sample in the window.
func (w Window) Clone() Window {
	out := make(Window, len(w))
	for i := range w {
		out[i] = w[i].Clone()
	}
	return out
}

// Round2 rounds to two decimals, the precision the collector stores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
