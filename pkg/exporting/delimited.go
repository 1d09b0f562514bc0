package exporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
)

func init() {
	Register(&delimitedFormat{name: "csv", ext: ".csv", comma: ','})
	Register(&delimitedFormat{name: "tsv", ext: ".tsv", comma: '\t'})
}

// ErrUnknownColumn is returned when a row carries a column the table header
// does not have.
var ErrUnknownColumn = errors.New("column not in table header")

type delimitedFormat struct {
	name  string
	ext   string
	comma rune
}

func (f *delimitedFormat) Name() string         { return f.name }
func (f *delimitedFormat) Extensions() []string { return []string{f.ext} }
func (f *delimitedFormat) Writer() Writer       { return &TableWriter{comma: f.comma} }

type cellKind int

const (
	cellAny cellKind = iota
	cellMetric
	cellText
	cellInt
)

// TableWriter writes dataset rows as a CSV or TSV table.
//
// The header is fixed when the schema is known at Init, else by the sorted
// keys of the first row. Metric cells missing from a row are written as 0,
// identity columns (window, class, label, batch) must be text, position and
// class_id must be integers, and booleans are written as 1/0.
type TableWriter struct {
	path   string
	file   *os.File
	table  *csv.Writer
	comma  rune
	header []string
	kinds  []cellKind
	index  map[string]int
}

func (w *TableWriter) Init(path string, schema *Schema) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w.path = path
	w.file = file
	w.table = csv.NewWriter(file)
	w.table.Comma = w.comma

	if schema != nil && len(schema.Columns) > 0 {
		return w.setHeader(schema.Columns)
	}
	return nil
}

func (w *TableWriter) setHeader(cols []string) error {
	w.header = append([]string(nil), cols...)
	w.kinds = make([]cellKind, len(w.header))
	w.index = make(map[string]int, len(w.header))
	for i, c := range w.header {
		w.index[c] = i
		w.kinds[i] = kindOfColumn(c)
	}
	if err := w.table.Write(w.header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

func kindOfColumn(col string) cellKind {
	switch col {
	case ColWindow, ColClass, ColLabel, ColBatch, ColTimestamp:
		return cellText
	case ColPosition, ColClassID:
		return cellInt
	}
	if isMetricColumn(col) {
		return cellMetric
	}
	return cellAny
}

func (w *TableWriter) Write(record Record) error {
	if w.header == nil {
		keys := make([]string, 0, len(record))
		for k := range record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if err := w.setHeader(keys); err != nil {
			return err
		}
	}

	cells := make([]string, len(w.header))
	for i, kind := range w.kinds {
		if kind == cellMetric {
			cells[i] = "0"
		}
	}
	for k, v := range record {
		i, ok := w.index[k]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		cell, err := encodeCell(w.kinds[i], v)
		if err != nil {
			return fmt.Errorf("column %s: %w", k, err)
		}
		cells[i] = cell
	}

	if err := w.table.Write(cells); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

func encodeCell(kind cellKind, v interface{}) (string, error) {
	switch kind {
	case cellText:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("want text, got %T", v)
		}
		return s, nil
	case cellInt:
		n, ok := toInt64(v)
		if !ok {
			return "", fmt.Errorf("want integer, got %T", v)
		}
		return formatValue(n), nil
	}
	if b, ok := v.(bool); ok {
		if b {
			return "1", nil
		}
		return "0", nil
	}
	return formatValue(v), nil
}

func (w *TableWriter) WriteBatch(records []Record) error {
	for i, r := range records {
		if err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

func (w *TableWriter) Flush() error {
	if w.table == nil {
		return nil
	}
	w.table.Flush()
	return w.table.Error()
}

func (w *TableWriter) Close() error {
	err := w.Flush()
	if w.file != nil {
		err = errors.Join(err, w.file.Close())
	}
	return err
}

func (w *TableWriter) Path() string {
	return w.path
}
