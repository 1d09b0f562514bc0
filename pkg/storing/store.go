// Package storing adapts the document store and dataset files behind small interfaces
// so the builders never touch a driver directly.
package storing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/metrics"
)

// CorpusReader loads the baseline corpus in collection order.
type CorpusReader interface {
	// Read returns up to limit samples; limit <= 0 reads everything.
	Read(ctx context.Context, limit int) ([]metrics.Sample, error)
	Close(ctx context.Context) error
}

// DatasetSink persists labeled windows and flat tables, one named set at a time.
type DatasetSink interface {
	WriteRecords(ctx context.Context, set string, records []exporting.LabeledRecord) error
	WriteTable(ctx context.Context, set string, rows []exporting.Record) error
	Close(ctx context.Context) error
}

// SampleSink receives raw samples from the collector.
type SampleSink interface {
	WriteSample(ctx context.Context, s metrics.Sample) error
	Close(ctx context.Context) error
}

// ErrSetDiscarded marks a write failure after which the sink dropped
// everything written to the set so far, not only the failed call.
var ErrSetDiscarded = errors.New("set discarded")

// IOError wraps a failed store operation.
type IOError struct {
	Op  string
	Set string
	Err error
}

func (e *IOError) Error() string {
	if e.Set == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Set, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// rowColumns orders a row's keys: the fixed flattened columns first, then the
// rest sorted by name.
func rowColumns(row exporting.Record) []string {
	known := make(map[string]bool, len(row))
	cols := make([]string, 0, len(row))
	for _, c := range exporting.Columns() {
		if _, ok := row[c]; ok {
			cols = append(cols, c)
			known[c] = true
		}
	}
	var extra []string
	for k := range row {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}
