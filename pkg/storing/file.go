package storing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/metrics"
)

var errLimitReached = errors.New("limit reached")

// FileCorpus reads a JSONL file of samples, one per line, in file order.
type FileCorpus struct {
	path string
}

func NewFileCorpus(path string) *FileCorpus {
	return &FileCorpus{path: path}
}

func (c *FileCorpus) Read(ctx context.Context, limit int) ([]metrics.Sample, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, &IOError{Op: "open", Set: c.path, Err: err}
	}
	defer f.Close()

	var samples []metrics.Sample
	err = exporting.ScanLines(f, func(lineNum int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var s metrics.Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		samples = append(samples, s)
		if limit > 0 && len(samples) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, &IOError{Op: "read", Set: c.path, Err: err}
	}
	return samples, nil
}

func (c *FileCorpus) Close(context.Context) error {
	return nil
}

// Manifest describes one committed dataset file. It is written next to the
// file as <set>_manifest.json.
type Manifest struct {
	Set       string    `json:"set"`
	Path      string    `json:"path"`
	Format    string    `json:"format"`
	Documents bool      `json:"documents"`
	Batch     string    `json:"batch,omitempty"`
	Classes   []string  `json:"classes"`
	Windows   int       `json:"windows"`
	Rows      int       `json:"rows"`
	Written   time.Time `json:"written"`
}

func (m *Manifest) addClass(tag string) {
	if !slices.Contains(m.Classes, tag) {
		m.Classes = append(m.Classes, tag)
	}
}

type openSet struct {
	exporter *exporting.Exporter
	manifest Manifest
}

// FileSink writes each set to <dir>/<set><ext>. A set stays open across calls
// and is moved into place on Close together with its manifest. A failed write
// discards the whole set and reports ErrSetDiscarded.
type FileSink struct {
	dir       string
	format    string
	documents bool
	open      map[string]*openSet
	order     []string
	now       func() time.Time
}

// NewFileSink creates a sink. documents writes whole windows per line and
// requires the jsonl format.
func NewFileSink(dir, format string, documents bool) (*FileSink, error) {
	f, ok := exporting.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", exporting.ErrUnsupportedFormat, format)
	}
	if documents && f.Name() != "jsonl" {
		return nil, fmt.Errorf("%w: %s cannot store documents", exporting.ErrUnsupportedFormat, format)
	}
	return &FileSink{
		dir:       dir,
		format:    f.Name(),
		documents: documents,
		open:      make(map[string]*openSet),
		now:       time.Now,
	}, nil
}

// Path returns where a set ends up after Close.
func (s *FileSink) Path(set string) string {
	return filepath.Join(s.dir, set+exporting.GetExtension(s.format))
}

// ManifestPath returns where the manifest of a set ends up after Close.
func (s *FileSink) ManifestPath(set string) string {
	return filepath.Join(s.dir, set+"_manifest.json")
}

func (s *FileSink) set(name string, schema *exporting.Schema) (*openSet, error) {
	if o, ok := s.open[name]; ok {
		return o, nil
	}
	var opts []exporting.ExporterOption
	if s.documents {
		opts = append(opts, exporting.WithDocuments())
	}
	e, err := exporting.NewExporter(s.Path(name), s.format, schema, opts...)
	if err != nil {
		return nil, err
	}
	o := &openSet{
		exporter: e,
		manifest: Manifest{
			Set:       name,
			Path:      e.Path(),
			Format:    e.Format(),
			Documents: s.documents,
			Classes:   []string{},
		},
	}
	s.open[name] = o
	s.order = append(s.order, name)
	return o, nil
}

func (s *FileSink) WriteRecords(ctx context.Context, set string, records []exporting.LabeledRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o, err := s.set(set, exporting.NewSchema(exporting.TabularColumns()...))
	if err != nil {
		return &IOError{Op: "create", Set: set, Err: err}
	}
	if err := o.exporter.WriteLabeled(records); err != nil {
		s.discard(set)
		return &IOError{Op: "write", Set: set, Err: fmt.Errorf("%w: %w", ErrSetDiscarded, err)}
	}

	m := &o.manifest
	for _, r := range records {
		if m.Batch == "" {
			m.Batch = r.Batch
		}
		m.addClass(r.Label.String())
		m.Windows++
		m.Rows += len(r.Rows)
	}
	return nil
}

func (s *FileSink) WriteTable(ctx context.Context, set string, rows []exporting.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	o, err := s.set(set, exporting.NewSchema(rowColumns(rows[0])...))
	if err != nil {
		return &IOError{Op: "create", Set: set, Err: err}
	}
	if err := o.exporter.WriteBatch(rows); err != nil {
		s.discard(set)
		return &IOError{Op: "write", Set: set, Err: fmt.Errorf("%w: %w", ErrSetDiscarded, err)}
	}

	m := &o.manifest
	for _, row := range rows {
		if b, ok := row[exporting.ColBatch].(string); ok && m.Batch == "" {
			m.Batch = b
		}
		if c, ok := row[exporting.ColClass].(string); ok {
			m.addClass(c)
		}
	}
	m.Rows += len(rows)
	return nil
}

func (s *FileSink) discard(set string) {
	if o, ok := s.open[set]; ok {
		_ = o.exporter.Abort()
		delete(s.open, set)
	}
}

// Close commits every open set and writes its manifest.
func (s *FileSink) Close(context.Context) error {
	var errs []error
	for _, set := range s.order {
		o, ok := s.open[set]
		if !ok {
			continue
		}
		delete(s.open, set)
		if err := o.exporter.Commit(); err != nil {
			errs = append(errs, &IOError{Op: "commit", Set: set, Err: err})
			continue
		}
		o.manifest.Written = s.now().UTC()
		if err := o.exporter.WriteManifest(o.manifest); err != nil {
			errs = append(errs, &IOError{Op: "manifest", Set: set, Err: err})
		}
	}
	s.order = nil
	return errors.Join(errs...)
}

// FileSampleSink appends samples to a JSONL file and flushes after each one.
type FileSampleSink struct {
	w *exporting.JSONLWriter
}

func NewFileSampleSink(path string) (*FileSampleSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &IOError{Op: "create", Set: path, Err: err}
		}
	}
	w, err := exporting.OpenJSONLAppend(path)
	if err != nil {
		return nil, &IOError{Op: "open", Set: path, Err: err}
	}
	return &FileSampleSink{w: w}, nil
}

func (s *FileSampleSink) WriteSample(_ context.Context, sample metrics.Sample) error {
	if err := s.w.WriteValue(sample); err != nil {
		return &IOError{Op: "write", Set: s.w.Path(), Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return &IOError{Op: "flush", Set: s.w.Path(), Err: err}
	}
	return nil
}

func (s *FileSampleSink) Close(context.Context) error {
	return s.w.Close()
}
