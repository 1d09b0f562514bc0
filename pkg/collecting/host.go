package collecting

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/sys/unix"

	"AnomalyForge/pkg/metrics"
)

// Host records OS identity. It is read once and reused.
type Host struct {
	info *metrics.OSInfo
}

func NewHost() *Host         { return &Host{} }
func (c *Host) Name() string { return "Host" }
func (c *Host) Close() error { return nil }

func (c *Host) Collect(ctx context.Context, s *metrics.Sample) error {
	if c.info == nil {
		info, err := host.InfoWithContext(ctx)
		if err != nil {
			return fmt.Errorf("host info: %w", err)
		}
		c.info = &metrics.OSInfo{
			OS:        info.OS,
			OSRelease: info.KernelVersion,
			BootTime:  float64(info.BootTime),
		}
		// uname gives the kernel's own spelling, e.g. "Linux" and "6.8.0-45-generic"
		if sysname, release, ok := uname(); ok {
			c.info.OS = sysname
			c.info.OSRelease = release
		}
	}
	o := *c.info
	s.OS = &o
	return nil
}

func uname() (sysname, release string, ok bool) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", "", false
	}

	toString := func(data any) string {
		var b []byte
		switch v := data.(type) {
		case [65]int8:
			for _, c := range v {
				b = append(b, byte(c))
			}
		case [65]uint8:
			b = v[:]
		}
		return unix.ByteSliceToString(b)
	}

	sysname, release = toString(u.Sysname), toString(u.Release)
	return sysname, release, sysname != ""
}
