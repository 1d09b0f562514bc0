package injecting

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AnomalyForge/pkg/metrics"
)

func newTestInjector(seed uint64, opts ...Option) *Injector {
	return NewInjector(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), opts...)
}

func baseline(procs int) metrics.Sample {
	s := metrics.Sample{
		CPU: metrics.CPUInfo{CPUCount: 4, LogicalCPUCount: 8, Percent: 12.5},
		Memory: metrics.MemoryInfo{
			TotalGB: 16, UsedGB: 4, AvailableGB: 12, Percent: 25,
			Swap: metrics.SwapInfo{TotalGB: 4, UsedGB: 0.5, FreeGB: 3.5, Percent: 12.5},
		},
		Disks: []metrics.DiskInfo{
			{Device: "/dev/sda1", Mountpoint: "/", TotalGB: 200, UsedGB: 50, Percent: 25,
				IO: metrics.DiskIO{ReadCount: 100, WriteCount: 200, ReadBytes: 4096, WriteBytes: 8192}},
			{Device: "/dev/sdb1", Mountpoint: "/data", TotalGB: 100, UsedGB: 50, Percent: 50,
				IO: metrics.DiskIO{ReadCount: 10, WriteCount: 20, ReadBytes: 1024, WriteBytes: 2048}},
		},
		Network:   metrics.NetworkInfo{BytesSentKB: 1200.5, BytesRecvKB: 3400.25, PacketsSent: 10, PacketsRecv: 20},
		Timestamp: 1735166000,
	}
	for i := 0; i < procs; i++ {
		s.Processes = append(s.Processes, metrics.ProcessInfo{
			PID: int32(100 + i), Name: fmt.Sprintf("proc%d", i), Username: "root",
			CPUPercent: 1.5, MemoryPercent: float64(i%12) + 0.5,
		})
	}
	return s
}

// window builds n samples with drifting counters so freezes are observable.
func window(n, procs int) metrics.Window {
	w := make(metrics.Window, n)
	for i := range w {
		s := baseline(procs)
		s.Timestamp += float64(i)
		s.Network.BytesRecvKB += float64(i * 10)
		s.Network.BytesSentKB += float64(i * 5)
		for j := range s.Disks {
			s.Disks[j].IO.ReadCount += int64(i * 3)
			s.Disks[j].IO.WriteBytes += int64(i * 512)
		}
		w[i] = s
	}
	return w
}

func TestParseClass(t *testing.T) {
	cases := map[string]Class{
		"0":            LoadProcess,
		"9":            DiskIOErr,
		"Load-Process": LoadProcess,
		"diskioerr":    DiskIOErr,
		" SwapThrash ": SwapThrash,
		"normal":       Normal,
		"-1":           Normal,
	}
	for in, want := range cases {
		got, err := ParseClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseClass("10")
	assert.ErrorIs(t, err, ErrUnknownClass)
	_, err = ParseClass("Bogus")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestParseClasses(t *testing.T) {
	all, err := ParseClasses("all")
	require.NoError(t, err)
	assert.Len(t, all, NumClasses)

	got, err := ParseClasses("MemLeak,8,MemLeak")
	require.NoError(t, err)
	assert.Equal(t, []Class{MemLeak, DiskFull}, got)

	_, err = ParseClasses("normal")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "Load-Process", LoadProcess.String())
	assert.Equal(t, "DiskIoErr", DiskIOErr.String())
	assert.Equal(t, "Normal", Normal.String())
	assert.Equal(t, "Class(42)", Class(42).String())
}

func TestInject_NormalAndUnknown(t *testing.T) {
	inj := newTestInjector(1)
	w := window(3, 5)
	before := w.Clone()

	require.NoError(t, inj.Inject(Normal, w))
	assert.Equal(t, before, w)

	assert.ErrorIs(t, inj.Inject(Class(10), w), ErrUnknownClass)
	assert.NoError(t, inj.Inject(MemLeak, metrics.Window{}))
}

func TestInject_Deterministic(t *testing.T) {
	for _, c := range Classes() {
		a, b := window(12, 20), window(12, 20)
		require.NoError(t, newTestInjector(7).Inject(c, a))
		require.NoError(t, newTestInjector(7).Inject(c, b))
		assert.Equal(t, a, b, c.String())
	}
}

func TestMemoryInvariants(t *testing.T) {
	for _, c := range []Class{CPUStorm, MemLeak, SwapThrash} {
		for seed := uint64(0); seed < 50; seed++ {
			w := window(12, 10)
			require.NoError(t, newTestInjector(seed).Inject(c, w))
			for i := range w {
				assert.NoError(t, w[i].CheckMemory(), "%s seed %d sample %d", c, seed, i)
				m := w[i].Memory
				assert.InDelta(t, m.Percent, m.UsedGB/m.TotalGB*100, 0.01)
			}
		}
	}
}

func TestCPUStorm_Ranges(t *testing.T) {
	w := window(12, 3)
	require.NoError(t, newTestInjector(3).Inject(CPUStorm, w))
	for _, s := range w {
		assert.GreaterOrEqual(t, s.CPU.Percent, 85.0)
		assert.LessOrEqual(t, s.CPU.Percent, 100.0)
		assert.GreaterOrEqual(t, s.Memory.Percent, 90.0)
		assert.LessOrEqual(t, s.Memory.Percent, 100.0)
	}
}

func TestSwapThrash_SwapInvariant(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		w := window(12, 3)
		require.NoError(t, newTestInjector(seed).Inject(SwapThrash, w))
		for i, s := range w {
			sw := s.Memory.Swap
			assert.InDelta(t, sw.TotalGB, sw.UsedGB+sw.FreeGB, 1e-9)
			assert.NoError(t, s.CheckSwap())
			assert.Greater(t, sw.UsedGB, 0.5, "sample %d swap did not grow", i)
			assert.Greater(t, s.Memory.UsedGB, 4.0, "sample %d memory did not absorb swap delta", i)
		}
	}
}

func TestSwapThrash_ZeroSwapIsNoOp(t *testing.T) {
	w := window(4, 3)
	for i := range w {
		w[i].Memory.Swap = metrics.SwapInfo{}
	}
	before := w.Clone()
	inj := newTestInjector(5)
	require.NoError(t, inj.Inject(SwapThrash, w))

	assert.Equal(t, before, w)
	assert.Equal(t, 4, inj.Skips()[SkipZeroSwap])
}

func TestMemLeak_WholeWindow(t *testing.T) {
	w := make(metrics.Window, 5)
	for i := range w {
		w[i] = metrics.Sample{Memory: metrics.MemoryInfo{
			TotalGB: 16, UsedGB: 4, AvailableGB: 12, Percent: 25,
			Swap: metrics.SwapInfo{TotalGB: 4, FreeGB: 4},
		}}
	}
	require.NoError(t, newTestInjector(11).Inject(MemLeak, w))
	for _, s := range w {
		assert.LessOrEqual(t, s.Memory.AvailableGB, 0.2)
		assert.GreaterOrEqual(t, s.Memory.Percent, 95.0)
		assert.LessOrEqual(t, s.Memory.Percent, 100.0)
		assert.Greater(t, s.Memory.UsedGB, 4.0)
	}
}

func TestMemLeak_SaturatedMemoryStaysConsistent(t *testing.T) {
	w := metrics.Window{{Memory: metrics.MemoryInfo{TotalGB: 8, UsedGB: 7.999, AvailableGB: 0.001, Percent: 99.9875}}}
	require.NoError(t, newTestInjector(2).Inject(MemLeak, w))
	m := w[0].Memory
	assert.LessOrEqual(t, m.UsedGB, m.TotalGB)
	assert.NoError(t, w[0].CheckMemory())
}

func TestLoadProcess_SumBounded(t *testing.T) {
	for n, anomalous := range map[int]int{1: 1, 5: 1, 30: 3, 200: 20, 400: 40} {
		for seed := uint64(0); seed < 10; seed++ {
			w := window(3, n)
			require.NoError(t, newTestInjector(seed).Inject(LoadProcess, w))
			for _, s := range w {
				assert.GreaterOrEqual(t, s.CPU.Percent, 80.0)
				assert.LessOrEqual(t, s.CPU.Percent, 100.0)
				var sum float64
				nonZero := 0
				for _, p := range s.Processes {
					sum += p.CPUPercent
					if p.CPUPercent > 0 {
						nonZero++
					}
				}
				assert.LessOrEqual(t, sum, 20.0+1e-9, "n=%d", n)
				assert.LessOrEqual(t, nonZero, anomalous, "n=%d", n)
			}
		}
	}
}

func TestLoadProcess_ScalesToExactlyTwenty(t *testing.T) {
	// 400 processes -> 40 anomalous, whose sum is far above 20 for any seed
	w := window(1, 400)
	require.NoError(t, newTestInjector(9).Inject(LoadProcess, w))
	var sum float64
	for _, p := range w[0].Processes {
		sum += p.CPUPercent
	}
	assert.InDelta(t, 20.0, sum, 1e-9)
}

func TestPHighCPU_SingleKiller(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		w := window(6, 15)
		require.NoError(t, newTestInjector(seed).Inject(PHighCPU, w))
		for _, s := range w {
			killers := 0
			for _, p := range s.Processes {
				switch {
				case p.CPUPercent >= 50 && p.CPUPercent <= 100:
					killers++
				default:
					assert.GreaterOrEqual(t, p.CPUPercent, 0.0)
					assert.LessOrEqual(t, p.CPUPercent, 10.0)
				}
			}
			assert.Equal(t, 1, killers)
		}
	}
}

func TestPHighMem_GuaranteesHighProcess(t *testing.T) {
	for seed := uint64(0); seed < 30; seed++ {
		w := window(6, 8)
		for i := range w {
			for j := range w[i].Processes {
				w[i].Processes[j].MemoryPercent = 0.1
			}
		}
		require.NoError(t, newTestInjector(seed).Inject(PHighMem, w))
		for _, s := range w {
			high := false
			for _, p := range s.Processes {
				assert.LessOrEqual(t, p.MemoryPercent, 50.0)
				if p.MemoryPercent > 20 {
					high = true
				}
			}
			assert.True(t, high, "seed %d", seed)
		}
	}
}

func TestPHighMem_DoublesLowUsage(t *testing.T) {
	w := metrics.Window{{Processes: []metrics.ProcessInfo{{PID: 1, MemoryPercent: 4}}}}
	require.NoError(t, newTestInjector(1).Inject(PHighMem, w))
	// the only process is doubled to 8 and then forced above 20
	assert.Greater(t, w[0].Processes[0].MemoryPercent, 20.0)
}

func TestProcessClasses_EmptyListIsNoOp(t *testing.T) {
	for _, c := range []Class{PHighCPU, PHighMem} {
		w := window(4, 0)
		before := w.Clone()
		inj := newTestInjector(1)
		require.NoError(t, inj.Inject(c, w))
		assert.Equal(t, before, w, c.String())
		assert.Equal(t, 4, inj.Skips()[SkipNoProcesses], c.String())
	}
}

func TestDiskFull(t *testing.T) {
	w := metrics.Window{{Disks: []metrics.DiskInfo{{TotalGB: 100, UsedGB: 50, Percent: 50, Mountpoint: "/data"}}}}
	require.NoError(t, newTestInjector(4).Inject(DiskFull, w))
	d := w[0].Disks[0]
	assert.GreaterOrEqual(t, d.Percent, 90.0)
	assert.LessOrEqual(t, d.Percent, 100.0)
	assert.InDelta(t, d.TotalGB*d.Percent/100, d.UsedGB, 1e-9)
}

func TestDiskFull_SkipsOpticalAndZeroTotal(t *testing.T) {
	disks := []metrics.DiskInfo{
		{Device: "/dev/sr0", Mountpoint: "/media/cdrom", TotalGB: 4, UsedGB: 4, Percent: 100},
		{Device: "tmpfs", Mountpoint: "/dev/sr0", TotalGB: 1, UsedGB: 0, Percent: 0},
		{Device: "/dev/loop0", Mountpoint: "/snap/core", TotalGB: 0},
		{Device: "/dev/sdc", Mountpoint: ""},
		{Device: "/dev/sda1", Mountpoint: "/", TotalGB: 200, UsedGB: 10, Percent: 5},
	}
	w := metrics.Window{{Disks: disks}}
	inj := newTestInjector(8)
	require.NoError(t, inj.Inject(DiskFull, w))

	got := w[0].Disks
	assert.Equal(t, 100.0, got[0].Percent)
	assert.Equal(t, 0.0, got[1].Percent)
	assert.Equal(t, 0.0, got[2].Percent)
	assert.GreaterOrEqual(t, got[4].Percent, 90.0)
	assert.NoError(t, w[0].CheckDisks())

	skips := inj.Skips()
	assert.Equal(t, 2, skips[SkipOptical])
	assert.Equal(t, 1, skips[SkipZeroDisk])
	assert.Equal(t, 1, skips[SkipUnmounted])
}

func TestDiskIOErr_Flatline(t *testing.T) {
	w := window(5, 2)
	first := []metrics.DiskIO{w[0].Disks[0].IO, w[0].Disks[1].IO}
	require.NoError(t, newTestInjector(6, WithDiskIOJitterProbability(0)).Inject(DiskIOErr, w))
	for i, s := range w {
		for j, d := range s.Disks {
			assert.Equal(t, first[j], d.IO, "sample %d disk %d", i, j)
		}
	}
}

func TestDiskIOErr_JitterOnlyGrows(t *testing.T) {
	w := window(12, 2)
	require.NoError(t, newTestInjector(6, WithDiskIOJitterProbability(1)).Inject(DiskIOErr, w))
	for i := 1; i < len(w); i++ {
		for j := range w[i].Disks {
			cur, prev := w[i].Disks[j].IO, w[i-1].Disks[j].IO
			assert.Equal(t, prev.ReadBytes, cur.ReadBytes)
			assert.LessOrEqual(t, cur.WriteBytes-prev.WriteBytes, int64(100))
			assert.GreaterOrEqual(t, cur.WriteBytes, prev.WriteBytes)
			assert.LessOrEqual(t, cur.ReadCount-prev.ReadCount, int64(10))
			assert.LessOrEqual(t, cur.WriteCount-prev.WriteCount, int64(10))
		}
	}
}

func TestDiskIOErr_MissingPreviousDisk(t *testing.T) {
	w := window(2, 0)
	w[0].Disks = w[0].Disks[:1]
	inj := newTestInjector(1, WithDiskIOJitterProbability(0))
	require.NoError(t, inj.Inject(DiskIOErr, w))
	assert.Equal(t, 1, inj.Skips()[SkipMissingDisk])
}

func TestNetDown_FreezesToFirst(t *testing.T) {
	w := make(metrics.Window, 3)
	for i, v := range []float64{10, 20, 30} {
		w[i].Network = metrics.NetworkInfo{BytesRecvKB: v, BytesSentKB: v / 2}
	}
	require.NoError(t, newTestInjector(12, WithNetJitterProbability(0)).Inject(NetDown, w))
	for _, s := range w {
		assert.Equal(t, 10.0, s.Network.BytesRecvKB)
		assert.Equal(t, 5.0, s.Network.BytesSentKB)
	}
}

func TestNetDown_JitterWithinOne(t *testing.T) {
	w := window(12, 0)
	recv := w[0].Network.BytesRecvKB
	require.NoError(t, newTestInjector(12, WithNetJitterProbability(1)).Inject(NetDown, w))
	for _, s := range w {
		assert.InDelta(t, recv, s.Network.BytesRecvKB, 1.005)
	}
}

func TestNetDown_SingleSample(t *testing.T) {
	w := metrics.Window{{Network: metrics.NetworkInfo{BytesRecvKB: 10, BytesSentKB: 5}}}
	require.NoError(t, newTestInjector(12, WithNetJitterProbability(0)).Inject(NetDown, w))
	assert.Equal(t, 10.0, w[0].Network.BytesRecvKB)
	assert.Equal(t, 5.0, w[0].Network.BytesSentKB)

	w = metrics.Window{{Network: metrics.NetworkInfo{BytesRecvKB: 10, BytesSentKB: 5}}}
	require.NoError(t, newTestInjector(12, WithNetJitterProbability(1)).Inject(NetDown, w))
	assert.InDelta(t, 10.0, w[0].Network.BytesRecvKB, 1.005)
	assert.InDelta(t, 5.0, w[0].Network.BytesSentKB, 1.005)
}

func TestNetTraffic_Burst(t *testing.T) {
	w := window(12, 0)
	before := w.Clone()
	require.NoError(t, newTestInjector(13, WithNetStallProbability(0)).Inject(NetTraffic, w))
	for i := range w {
		gain := w[i].Network.BytesRecvKB - before[i].Network.BytesRecvKB
		assert.GreaterOrEqual(t, gain, 50000.0-0.01)
		assert.LessOrEqual(t, gain, 100000.0+0.01)
		assert.Equal(t, metrics.Round2(w[i].Network.BytesSentKB), w[i].Network.BytesSentKB)
	}
}

func TestNetTraffic_Stall(t *testing.T) {
	w := window(6, 0)
	require.NoError(t, newTestInjector(13, WithNetStallProbability(1)).Inject(NetTraffic, w))
	for i := 1; i < len(w); i++ {
		assert.Equal(t, w[0].Network, w[i].Network)
	}
}

func TestSkipHook(t *testing.T) {
	var seen []SkipReason
	inj := newTestInjector(1, WithSkipHook(func(c Class, r SkipReason) {
		assert.Equal(t, PHighCPU, c)
		seen = append(seen, r)
	}))
	require.NoError(t, inj.Inject(PHighCPU, window(2, 0)))
	assert.Equal(t, []SkipReason{SkipNoProcesses, SkipNoProcesses}, seen)
}
