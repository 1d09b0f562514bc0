package exporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const partialSuffix = ".partial"

// Exporter writes one dataset file. Rows land in a sibling temp file that is
// renamed into place by Commit, so a failed batch never leaves a partial file.
type Exporter struct {
	path      string
	tmpPath   string
	format    string
	writer    Writer
	documents bool
	count     int
	closed    bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithDocuments writes labeled records whole, one document per line, instead
// of one tabular row per sample. Only JSONL can hold documents.
func WithDocuments() ExporterOption {
	return func(e *Exporter) {
		e.documents = true
	}
}

// NewExporter creates an exporter for the given path and format.
func NewExporter(path, format string, schema *Schema, opts ...ExporterOption) (*Exporter, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, ok := Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	e := &Exporter{
		path:    path,
		tmpPath: path + partialSuffix,
		format:  f.Name(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.documents && e.format != "jsonl" {
		return nil, fmt.Errorf("%w: %s cannot store documents", ErrUnsupportedFormat, e.format)
	}

	e.writer = f.Writer()
	if err := e.writer.Init(e.tmpPath, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize writer: %w", err)
	}
	return e, nil
}

// Path returns the final output path.
func (e *Exporter) Path() string {
	return e.path
}

// Format returns the output format name.
func (e *Exporter) Format() string {
	return e.format
}

// Count returns the number of rows or documents written.
func (e *Exporter) Count() int {
	return e.count
}

// Write writes a single row.
func (e *Exporter) Write(record Record) error {
	if err := e.writer.Write(record); err != nil {
		return err
	}
	e.count++
	return nil
}

// WriteBatch writes multiple rows.
func (e *Exporter) WriteBatch(records []Record) error {
	for i, r := range records {
		if err := e.Write(r); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

// WriteLabeled writes labeled windows as documents or tabular rows depending on mode.
func (e *Exporter) WriteLabeled(records []LabeledRecord) error {
	for _, r := range records {
		if e.documents {
			if err := e.Write(r.Document()); err != nil {
				return fmt.Errorf("failed to write window %s: %w", r.Index, err)
			}
			continue
		}
		if err := e.WriteBatch(r.Tabular()); err != nil {
			return fmt.Errorf("failed to write window %s: %w", r.Index, err)
		}
	}
	return nil
}

// Commit flushes, closes and moves the file into place.
func (e *Exporter) Commit() error {
	if err := e.close(); err != nil {
		os.Remove(e.tmpPath)
		return err
	}
	if _, err := os.Stat(e.tmpPath); errors.Is(err, os.ErrNotExist) {
		// nothing was written
		return nil
	}
	if err := os.Rename(e.tmpPath, e.path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", e.path, err)
	}
	return nil
}

// Abort discards everything written so far.
func (e *Exporter) Abort() error {
	err := e.close()
	if rmErr := os.Remove(e.tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return errors.Join(err, rmErr)
	}
	return err
}

func (e *Exporter) close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.writer.Close()
}

// WriteManifest writes v as indented JSON next to the output file.
func (e *Exporter) WriteManifest(v interface{}) error {
	dir := filepath.Dir(e.path)
	base := filepath.Base(e.path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name+"_manifest.json"), data, 0644)
}
