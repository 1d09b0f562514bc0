package collecting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"AnomalyForge/pkg/metrics"
)

// Manager runs a fixed set of collectors into one sample.
type Manager struct {
	collectors []Collector
	concurrent bool
	logger     *zap.Logger
	now        func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConcurrent runs collectors in parallel. Each writes a disjoint section.
func WithConcurrent(on bool) ManagerOption {
	return func(m *Manager) {
		m.concurrent = on
	}
}

// WithCollectors replaces the default collector set.
func WithCollectors(cs ...Collector) ManagerOption {
	return func(m *Manager) {
		m.collectors = cs
	}
}

func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		collectors: []Collector{
			NewCPU(),
			NewMemory(),
			NewDisk(),
			NewNetwork(),
			NewProcessCollector(),
			NewHost(),
		},
		concurrent: true,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	mode := "sequential"
	if m.concurrent {
		mode = "concurrent"
	}
	m.logger.Debug("initialized collectors", zap.Int("count", len(m.collectors)), zap.String("mode", mode))
	return m
}

// Collect takes one sample. Collector failures are joined into the error and
// the sample keeps whatever the other collectors produced.
func (m *Manager) Collect(ctx context.Context) (metrics.Sample, error) {
	var s metrics.Sample
	start := m.now()

	errs := make([]error, len(m.collectors))
	if m.concurrent {
		var wg sync.WaitGroup
		wg.Add(len(m.collectors))
		for i, c := range m.collectors {
			go func(i int, col Collector) {
				defer wg.Done()
				errs[i] = m.run(ctx, col, &s)
			}(i, c)
		}
		wg.Wait()
	} else {
		for i, c := range m.collectors {
			errs[i] = m.run(ctx, c, &s)
		}
	}

	s.Timestamp = float64(start.UnixNano()) / 1e9
	return s, errors.Join(errs...)
}

func (m *Manager) run(ctx context.Context, c Collector, s *metrics.Sample) error {
	if err := c.Collect(ctx, s); err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	return nil
}

func (m *Manager) Close() {
	for _, c := range m.collectors {
		if err := c.Close(); err != nil {
			m.logger.Warn("error closing collector", zap.String("collector", c.Name()), zap.Error(err))
		}
	}
}

func (m *Manager) CollectorNames() []string {
	names := make([]string, len(m.collectors))
	for i, c := range m.collectors {
		names[i] = c.Name()
	}
	return names
}
