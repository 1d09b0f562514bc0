// Package sampling draws fixed-length windows from a baseline corpus.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"AnomalyForge/pkg/metrics"
)

// PreconditionError reports a corpus too short for the requested window.
type PreconditionError struct {
	CorpusLen int
	WindowLen int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("corpus of %d samples cannot supply a window of %d", e.CorpusLen, e.WindowLen)
}

// Sampler hands out independent copies of contiguous corpus windows.
// The corpus is never modified.
type Sampler struct {
	corpus []metrics.Sample
	rng    *rand.Rand
}

func NewSampler(corpus []metrics.Sample, rng *rand.Rand) *Sampler {
	return &Sampler{corpus: corpus, rng: rng}
}

// Len returns the corpus length.
func (s *Sampler) Len() int {
	return len(s.corpus)
}

// Sample returns a deep copy of n samples starting at a uniform offset in [0, L-n].
func (s *Sampler) Sample(n int) (metrics.Window, error) {
	w, _, err := s.SampleAt(n)
	return w, err
}

// SampleAt is Sample that also reports the chosen offset.
func (s *Sampler) SampleAt(n int) (metrics.Window, int, error) {
	if n <= 0 || len(s.corpus) < n {
		return nil, 0, &PreconditionError{CorpusLen: len(s.corpus), WindowLen: n}
	}
	offset := s.rng.IntN(len(s.corpus) - n + 1)
	return metrics.Window(s.corpus[offset : offset+n]).Clone(), offset, nil
}

// Corpus returns a deep copy of the whole corpus.
func (s *Sampler) Corpus() metrics.Window {
	return metrics.Window(s.corpus).Clone()
}
