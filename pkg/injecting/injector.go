package injecting

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"AnomalyForge/pkg/metrics"
)

// SkipReason names a guarded no-op path taken by a strategy.
type SkipReason string

const (
	SkipNoProcesses SkipReason = "no_processes"
	SkipNoDisks     SkipReason = "no_disks"
	SkipZeroMemory  SkipReason = "zero_memory_total"
	SkipZeroSwap    SkipReason = "zero_swap_total"
	SkipZeroDisk    SkipReason = "zero_disk_total"
	SkipOptical     SkipReason = "optical_disk"
	SkipUnmounted   SkipReason = "unmounted_disk"
	SkipMissingDisk SkipReason = "missing_previous_disk"
)

// Options tunes the stochastic branches of the strategies.
type Options struct {
	NetStallProbability      float64
	NetJitterProbability     float64
	DiskIOJitterProbability  float64
	AnomalousProcessFraction float64
	OpticalMarkers           []string
}

func DefaultOptions() Options {
	return Options{
		NetStallProbability:      0.4,
		NetJitterProbability:     0.2,
		DiskIOJitterProbability:  0.2,
		AnomalousProcessFraction: 0.1,
		OpticalMarkers:           []string{"/dev/sr0", "/dev/cdrom"},
	}
}

// Option configures an Injector.
type Option func(*Injector)

// WithOptions replaces the full option set.
func WithOptions(o Options) Option {
	return func(inj *Injector) {
		inj.opts = o
	}
}

// WithNetStallProbability sets the per-sample stall chance of NetTraffic.
func WithNetStallProbability(p float64) Option {
	return func(inj *Injector) {
		inj.opts.NetStallProbability = p
	}
}

// WithNetJitterProbability sets the per-sample jitter chance of NetDown.
func WithNetJitterProbability(p float64) Option {
	return func(inj *Injector) {
		inj.opts.NetJitterProbability = p
	}
}

// WithDiskIOJitterProbability sets the per-disk jitter chance of DiskIoErr.
func WithDiskIOJitterProbability(p float64) Option {
	return func(inj *Injector) {
		inj.opts.DiskIOJitterProbability = p
	}
}

// WithSkipHook is called for every guarded no-op.
func WithSkipHook(fn func(Class, SkipReason)) Option {
	return func(inj *Injector) {
		inj.onSkip = fn
	}
}

type strategy func(inj *Injector, w metrics.Window)

var strategies = [numClasses]strategy{
	LoadProcess: (*Injector).loadProcess,
	CPUStorm:    (*Injector).cpuStorm,
	NetTraffic:  (*Injector).netTraffic,
	NetDown:     (*Injector).netDown,
	PHighCPU:    (*Injector).processHighCPU,
	PHighMem:    (*Injector).processHighMem,
	MemLeak:     (*Injector).memLeak,
	SwapThrash:  (*Injector).swapThrash,
	DiskFull:    (*Injector).diskFull,
	DiskIOErr:   (*Injector).diskIOErr,
}

// Injector applies one anomaly strategy per call. All randomness comes from rng.
type Injector struct {
	rng    *rand.Rand
	opts   Options
	onSkip func(Class, SkipReason)

	mu    sync.Mutex
	skips map[SkipReason]int
}

func NewInjector(rng *rand.Rand, opts ...Option) *Injector {
	inj := &Injector{
		rng:   rng,
		opts:  DefaultOptions(),
		skips: make(map[SkipReason]int),
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// Inject mutates w in place with the pattern of class c. Normal is a no-op.
// Injecting the same window twice is not supported.
func (inj *Injector) Inject(c Class, w metrics.Window) error {
	if c == Normal {
		return nil
	}
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownClass, int(c))
	}
	if len(w) == 0 {
		return nil
	}
	strategies[c](inj, w)
	return nil
}

// Skips returns a snapshot of guarded no-op counts.
func (inj *Injector) Skips() map[SkipReason]int {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	out := make(map[SkipReason]int, len(inj.skips))
	for k, v := range inj.skips {
		out[k] = v
	}
	return out
}

func (inj *Injector) skip(c Class, reason SkipReason) {
	inj.mu.Lock()
	inj.skips[reason]++
	inj.mu.Unlock()
	if inj.onSkip != nil {
		inj.onSkip(c, reason)
	}
}

// uniform draws from [lo, hi).
func (inj *Injector) uniform(lo, hi float64) float64 {
	return lo + inj.rng.Float64()*(hi-lo)
}

// randint draws from [lo, hi].
func (inj *Injector) randint(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + inj.rng.Int64N(hi-lo+1)
}

func (inj *Injector) chance(p float64) bool {
	return inj.rng.Float64() < p
}

// anomalousCount is ceil(n*fraction), at least 1 and at most n.
func (inj *Injector) anomalousCount(n int) int {
	k := int(math.Ceil(float64(n)*inj.opts.AnomalousProcessFraction - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// pick returns k distinct indices from [0, n).
func (inj *Injector) pick(n, k int) []int {
	return inj.rng.Perm(n)[:k]
}
