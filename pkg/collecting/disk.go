package collecting

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"AnomalyForge/pkg/metrics"
)

type Disk struct{}

func NewDisk() *Disk         { return &Disk{} }
func (c *Disk) Name() string { return "Disk" }
func (c *Disk) Close() error { return nil }

// Collect records every real partition. Partitions whose usage cannot be read
// are left out; a device without io counters reports zeros.
func (c *Disk) Collect(ctx context.Context, s *metrics.Sample) error {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return fmt.Errorf("disk partitions: %w", err)
	}
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		counters = nil
	}

	disks := make([]metrics.DiskInfo, 0, len(parts))
	for _, p := range parts {
		if isPseudoMount(p.Mountpoint) {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}

		d := metrics.DiskInfo{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			TotalGB:    gigabytes(usage.Total),
			UsedGB:     gigabytes(usage.Used),
			Percent:    usage.UsedPercent,
		}
		if io, ok := counters[filepath.Base(p.Device)]; ok {
			d.IO = metrics.DiskIO{
				ReadCount:  int64(io.ReadCount),
				WriteCount: int64(io.WriteCount),
				ReadBytes:  int64(io.ReadBytes),
				WriteBytes: int64(io.WriteBytes),
			}
		}
		disks = append(disks, d)
	}
	s.Disks = disks
	return nil
}

func isPseudoMount(mountpoint string) bool {
	for _, prefix := range pseudoMountPrefixes {
		if strings.HasPrefix(mountpoint, prefix) {
			return true
		}
	}
	return false
}
