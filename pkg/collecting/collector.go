// Package collecting samples the live host into the corpus schema.
package collecting

import (
	"context"

	"AnomalyForge/pkg/metrics"
)

// Collector fills its own section of a sample.
type Collector interface {
	Name() string
	Collect(ctx context.Context, s *metrics.Sample) error
	Close() error
}
