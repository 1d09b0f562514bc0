package injecting

import (
	"slices"

	"AnomalyForge/pkg/metrics"
)

// diskFull fills every sized, mounted, non-optical disk to 90-100%.
func (inj *Injector) diskFull(w metrics.Window) {
	for i := range w {
		disks := w[i].Disks
		if len(disks) == 0 {
			inj.skip(DiskFull, SkipNoDisks)
			continue
		}
		for j := range disks {
			d := &disks[j]
			switch {
			case d.Mountpoint == "":
				inj.skip(DiskFull, SkipUnmounted)
			case inj.optical(d):
				inj.skip(DiskFull, SkipOptical)
			case !setDiskPercent(d, metrics.Round2(inj.uniform(90, 100))):
				inj.skip(DiskFull, SkipZeroDisk)
			}
		}
	}
}

// diskIOErr flatlines io counters on the previous sample, with rare small jitter.
func (inj *Injector) diskIOErr(w metrics.Window) {
	for i := 1; i < len(w); i++ {
		prev := w[i-1].Disks
		disks := w[i].Disks
		if len(disks) == 0 {
			inj.skip(DiskIOErr, SkipNoDisks)
			continue
		}
		for j := range disks {
			if j >= len(prev) {
				inj.skip(DiskIOErr, SkipMissingDisk)
				continue
			}
			io := prev[j].IO
			if inj.chance(inj.opts.DiskIOJitterProbability) {
				io.WriteBytes += inj.randint(0, 100)
				io.ReadCount += inj.randint(0, 10)
				io.WriteCount += inj.randint(0, 10)
			}
			disks[j].IO = io
		}
	}
}

func (inj *Injector) optical(d *metrics.DiskInfo) bool {
	return slices.Contains(inj.opts.OpticalMarkers, d.Mountpoint) ||
		slices.Contains(inj.opts.OpticalMarkers, d.Device)
}
