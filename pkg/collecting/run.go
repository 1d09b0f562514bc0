package collecting

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"AnomalyForge/pkg/observing"
	"AnomalyForge/pkg/storing"
)

// Run samples every interval and writes each sample to sink until ctx is done
// or count samples were written (count <= 0 means no limit). A sample with a
// collector error is still stored; a sink failure stops the loop.
func (m *Manager) Run(ctx context.Context, interval time.Duration, count int, sink storing.SampleSink, obs observing.Observer) (int, error) {
	if obs == nil {
		obs = observing.Nop{}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	written := 0
	for {
		start := m.now()
		s, err := m.Collect(ctx)
		if ctx.Err() != nil {
			return written, nil
		}
		if err != nil {
			m.logger.Warn("partial sample", zap.Error(err))
		}
		if err := sink.WriteSample(ctx, s); err != nil {
			if errors.Is(err, context.Canceled) {
				return written, nil
			}
			return written, err
		}
		written++
		obs.SampleCollected(m.now().Sub(start))
		m.logger.Debug("sample stored", zap.Int("n", written), zap.Int("processes", len(s.Processes)))

		if count > 0 && written >= count {
			return written, nil
		}
		select {
		case <-ctx.Done():
			return written, nil
		case <-ticker.C:
		}
	}
}
