// Package building orchestrates sampling, injection, flattening and persistence
// of whole datasets.
package building

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/injecting"
	"AnomalyForge/pkg/metrics"
	"AnomalyForge/pkg/observing"
	"AnomalyForge/pkg/sampling"
	"AnomalyForge/pkg/storing"
)

// Report summarizes a build. On failure it lists the classes whose sets were
// fully written before the error.
type Report struct {
	Batch     string            `json:"batch"`
	Completed []injecting.Class `json:"-"`
	Sets      []string          `json:"sets"`
	Windows   int               `json:"windows"`
	Rows      int               `json:"rows"`
}

// CompletedTags returns the completed classes by tag.
func (r Report) CompletedTags() []string {
	out := make([]string, len(r.Completed))
	for i, c := range r.Completed {
		out[i] = c.String()
	}
	return out
}

func (r *Report) addSet(set string) {
	if !slices.Contains(r.Sets, set) {
		r.Sets = append(r.Sets, set)
	}
}

// setTally is what a report credits to one set.
type setTally struct {
	classes []injecting.Class
	windows int
	rows    int
}

// discard withdraws everything credited to a set the sink threw away.
func (r *Report) discard(set string, t setTally) {
	r.Completed = slices.DeleteFunc(r.Completed, func(c injecting.Class) bool {
		return slices.Contains(t.classes, c)
	})
	r.Sets = slices.DeleteFunc(r.Sets, func(s string) bool { return s == set })
	r.Windows -= t.windows
	r.Rows -= t.rows
}

// Builder produces labeled datasets from a baseline corpus.
type Builder struct {
	sampler   *sampling.Sampler
	injector  *injecting.Injector
	flattener *exporting.Flattener
	sink      storing.DatasetSink
	rng       *rand.Rand
	logger    *zap.Logger
	obs       observing.Observer
	prefix    string
	combined  bool
	batch     string
}

// Option configures a Builder.
type Option func(*Builder)

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

func WithObserver(o observing.Observer) Option {
	return func(b *Builder) {
		b.obs = o
	}
}

func WithFlattener(f *exporting.Flattener) Option {
	return func(b *Builder) {
		b.flattener = f
	}
}

// WithPrefix sets the prefix of every set name.
func WithPrefix(p string) Option {
	return func(b *Builder) {
		b.prefix = p
	}
}

// WithCombined writes all classes of a build into one set.
func WithCombined(on bool) Option {
	return func(b *Builder) {
		b.combined = on
	}
}

// WithBatchID overrides the generated batch id stamped on every record.
func WithBatchID(id string) Option {
	return func(b *Builder) {
		b.batch = id
	}
}

func New(sampler *sampling.Sampler, injector *injecting.Injector, sink storing.DatasetSink, rng *rand.Rand, opts ...Option) *Builder {
	b := &Builder{
		sampler:   sampler,
		injector:  injector,
		flattener: exporting.NewFlattener(),
		sink:      sink,
		rng:       rng,
		logger:    zap.NewNop(),
		obs:       observing.Nop{},
		prefix:    "stamp",
		batch:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Batch returns the id stamped on records of this builder.
func (b *Builder) Batch() string {
	return b.batch
}

// SetName returns the set a class is written to for the given kind of build.
func (b *Builder) SetName(kind string, c injecting.Class) string {
	if b.combined || c == injecting.Normal {
		return b.prefix + "_" + kind
	}
	return b.prefix + "_" + kind + "_" + c.String()
}

// BuildTraining writes perClass windows of windowLen samples for every class.
// Each window carries the anomaly at one random focus position only. Record
// indexes restart at 0 in every set, so they run across classes only when
// combined.
func (b *Builder) BuildTraining(ctx context.Context, classes []injecting.Class, perClass, windowLen int) (Report, error) {
	return b.buildPerClass(ctx, "abnormal", classes, perClass, windowLen, func(_ injecting.Class, positions []int) []int {
		return []int{positions[b.rng.IntN(len(positions))]}
	})
}

// BuildWindows writes perClass windows per class with every sample injected.
func (b *Builder) BuildWindows(ctx context.Context, classes []injecting.Class, perClass, windowLen int) (Report, error) {
	return b.buildPerClass(ctx, "windows", classes, perClass, windowLen, func(_ injecting.Class, positions []int) []int {
		return positions
	})
}

// focusFunc picks the positions of a window that receive the anomaly. The
// argument lists every position.
type focusFunc func(c injecting.Class, positions []int) []int

func (b *Builder) buildPerClass(ctx context.Context, kind string, classes []injecting.Class, perClass, windowLen int, pick focusFunc) (Report, error) {
	report := Report{Batch: b.batch}
	positions := make([]int, windowLen)
	for i := range positions {
		positions[i] = i
	}

	tallies := make(map[string]setTally)
	next := 0
	for _, c := range classes {
		set := b.SetName(kind, c)
		if !b.combined {
			next = 0
		}
		log := b.logger.With(zap.String("class", c.String()), zap.String("set", set))
		log.Info("building class", zap.Int("windows", perClass), zap.Int("window_len", windowLen))

		records := make([]exporting.LabeledRecord, 0, perClass)
		for i := 0; i < perClass; i++ {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			w, offset, err := b.sampler.SampleAt(windowLen)
			if err != nil {
				return report, fmt.Errorf("class %s: %w", c, err)
			}

			focus := pick(c, positions)
			if err := b.injectFocus(c, w, focus); err != nil {
				return report, fmt.Errorf("class %s: %w", c, err)
			}

			rec := b.flattener.Flatten(strconv.Itoa(next), w, c, append([]int(nil), focus...))
			rec.Batch = b.batch
			records = append(records, rec)
			next++
			b.obs.WindowBuilt(c)
			log.Debug("window built", zap.Int("offset", offset), zap.Ints("focus", focus))
		}

		rows := len(records) * windowLen
		if err := b.write(set, rows, func() error {
			return b.sink.WriteRecords(ctx, set, records)
		}); err != nil {
			if errors.Is(err, storing.ErrSetDiscarded) {
				report.discard(set, tallies[set])
				log.Warn("set discarded by sink", zap.Strings("completed", report.CompletedTags()))
			}
			return report, fmt.Errorf("class %s: %w", c, err)
		}
		t := tallies[set]
		t.classes = append(t.classes, c)
		t.windows += len(records)
		t.rows += rows
		tallies[set] = t

		report.Completed = append(report.Completed, c)
		report.addSet(set)
		report.Windows += len(records)
		report.Rows += rows
	}
	return report, nil
}

// injectFocus injects c into each contiguous run of focus positions, so a
// fully focused window is mutated as one unit. focus must be ascending.
func (b *Builder) injectFocus(c injecting.Class, w metrics.Window, focus []int) error {
	for start := 0; start < len(focus); {
		end := start + 1
		for end < len(focus) && focus[end] == focus[end-1]+1 {
			end++
		}
		lo, hi := focus[start], focus[end-1]+1
		if err := b.injector.Inject(c, w[lo:hi]); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// BuildNormal writes count windows with no injection and an empty label.
func (b *Builder) BuildNormal(ctx context.Context, count, windowLen int) (Report, error) {
	report := Report{Batch: b.batch}
	set := b.SetName("normal", injecting.Normal)
	b.logger.Info("building normal windows", zap.Int("windows", count), zap.String("set", set))

	records := make([]exporting.LabeledRecord, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		w, err := b.sampler.Sample(windowLen)
		if err != nil {
			return report, err
		}
		rec := b.flattener.Flatten(strconv.Itoa(i), w, injecting.Normal, nil)
		rec.Batch = b.batch
		records = append(records, rec)
		b.obs.WindowBuilt(injecting.Normal)
	}

	if err := b.write(set, count*windowLen, func() error {
		return b.sink.WriteRecords(ctx, set, records)
	}); err != nil {
		return report, err
	}
	report.addSet(set)
	report.Windows = count
	report.Rows = count * windowLen
	return report, nil
}

func (b *Builder) write(set string, rows int, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		b.logger.Error("write failed", zap.String("set", set), zap.Error(err))
		return err
	}
	elapsed := time.Since(start)
	b.obs.SetWritten(set, rows, elapsed)
	b.logger.Info("set written", zap.String("set", set), zap.Int("rows", rows), zap.Duration("elapsed", elapsed))
	return nil
}

// BuildTestSet copies the whole corpus, labels every sample Normal and then
// injects one run of runLen samples per class at a random offset. Runs may
// overlap; an overlapped sample keeps the class injected last. With no
// classes every class is injected.
func (b *Builder) BuildTestSet(ctx context.Context, runLen int, classes ...injecting.Class) (Report, error) {
	report := Report{Batch: b.batch}
	if len(classes) == 0 {
		classes = injecting.Classes()
	}

	corpus := b.sampler.Corpus()
	if runLen <= 0 || len(corpus) < runLen {
		return report, &sampling.PreconditionError{CorpusLen: len(corpus), WindowLen: runLen}
	}

	labels := make([]injecting.Class, len(corpus))
	for i := range labels {
		labels[i] = injecting.Normal
	}

	for _, c := range classes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		off := b.rng.IntN(len(corpus) - runLen + 1)
		if err := b.injector.Inject(c, corpus[off:off+runLen]); err != nil {
			return report, fmt.Errorf("class %s: %w", c, err)
		}
		for i := off; i < off+runLen; i++ {
			labels[i] = c
		}
		b.obs.WindowBuilt(c)
		b.logger.Debug("attack run injected", zap.String("class", c.String()), zap.Int("offset", off), zap.Int("length", runLen))
	}

	rows := b.flattener.Rows(corpus)
	for i, row := range rows {
		if labels[i] == injecting.Normal {
			row[exporting.ColLabel] = exporting.LabelNormal
		} else {
			row[exporting.ColLabel] = exporting.LabelAttack
		}
		row[exporting.ColClass] = labels[i].String()
		row[exporting.ColBatch] = b.batch
	}

	set := b.SetName("test", injecting.Normal)
	if err := b.write(set, len(rows), func() error {
		return b.sink.WriteTable(ctx, set, rows)
	}); err != nil {
		return report, err
	}
	report.Completed = append(report.Completed, classes...)
	report.addSet(set)
	report.Windows = len(classes)
	report.Rows = len(rows)
	return report, nil
}

// Sampled is one window drawn and injected outside of any dataset.
type Sampled struct {
	Class  injecting.Class
	Offset int
	Focus  []int
	Before metrics.Window
	After  metrics.Window
}

// SampleOne draws one window and injects c at one random position, or at
// every position when whole is set. Nothing is written to the sink.
func (b *Builder) SampleOne(c injecting.Class, windowLen int, whole bool) (Sampled, error) {
	w, offset, err := b.sampler.SampleAt(windowLen)
	if err != nil {
		return Sampled{}, err
	}

	var focus []int
	if c != injecting.Normal {
		if whole {
			focus = make([]int, windowLen)
			for i := range focus {
				focus[i] = i
			}
		} else {
			focus = []int{b.rng.IntN(windowLen)}
		}
	}

	before := w.Clone()
	if err := b.injectFocus(c, w, focus); err != nil {
		return Sampled{}, err
	}
	b.obs.WindowBuilt(c)
	return Sampled{Class: c, Offset: offset, Focus: focus, Before: before, After: w}, nil
}

// Record flattens the injected window with the builder's batch id.
func (b *Builder) Record(index string, s Sampled) exporting.LabeledRecord {
	rec := b.flattener.Flatten(index, s.After, s.Class, s.Focus)
	rec.Batch = b.batch
	return rec
}
