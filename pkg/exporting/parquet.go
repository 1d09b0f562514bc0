package exporting

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/parquet-go/parquet-go"
)

const ParquetBatchSize = 1000

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat handles Parquet files.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }
func (f *ParquetFormat) Writer() Writer       { return &ParquetWriter{} }

type columnKind int

const (
	kindDouble columnKind = iota
	kindInt
	kindBool
	kindString
)

// ParquetWriter writes Parquet files using the Row API. The column set comes
// from the schema when given, else from the first record; parquet groups store
// columns in name order so rows are always built sorted.
type ParquetWriter struct {
	path    string
	file    *os.File
	writer  *parquet.Writer
	preset  []string
	columns []string
	kinds   []columnKind
	buffer  []parquet.Row
	mu      sync.Mutex
}

func (w *ParquetWriter) Init(path string, schema *Schema) error {
	w.path = path
	if schema != nil {
		w.preset = append([]string(nil), schema.Columns...)
	}
	w.buffer = make([]parquet.Row, 0, ParquetBatchSize)
	return nil
}

func (w *ParquetWriter) initSchema(record Record) error {
	if len(w.preset) > 0 {
		w.columns = append([]string(nil), w.preset...)
	} else {
		w.columns = make([]string, 0, len(record))
		for k := range record {
			w.columns = append(w.columns, k)
		}
	}
	sort.Strings(w.columns)

	group := make(parquet.Group, len(w.columns))
	w.kinds = make([]columnKind, len(w.columns))
	for i, name := range w.columns {
		w.kinds[i] = kindOf(record[name])
		group[name] = parquetNode(w.kinds[i])
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w.file = file
	w.writer = parquet.NewWriter(file, parquet.NewSchema("record", group),
		parquet.Compression(&parquet.Snappy),
	)
	return nil
}

func kindOf(val interface{}) columnKind {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case bool:
		return kindBool
	case string:
		return kindString
	default:
		return kindDouble
	}
}

func parquetNode(k columnKind) parquet.Node {
	switch k {
	case kindInt:
		return parquet.Optional(parquet.Int(64))
	case kindBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	case kindString:
		return parquet.Optional(parquet.String())
	default:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
}

func (w *ParquetWriter) recordToRow(record Record) parquet.Row {
	row := make(parquet.Row, len(w.columns))
	for i, name := range w.columns {
		val, ok := record[name]
		if !ok || val == nil {
			row[i] = parquet.NullValue().Level(0, 0, i)
			continue
		}
		row[i] = toParquetValue(w.kinds[i], val).Level(0, 1, i)
	}
	return row
}

func toParquetValue(k columnKind, val interface{}) parquet.Value {
	switch k {
	case kindInt:
		if n, ok := toInt64(val); ok {
			return parquet.Int64Value(n)
		}
	case kindDouble:
		if f, ok := toFloat64(val); ok {
			return parquet.DoubleValue(f)
		}
	case kindBool:
		if b, ok := val.(bool); ok {
			return parquet.BooleanValue(b)
		}
	}
	return parquet.ByteArrayValue([]byte(formatValue(val)))
}

func (w *ParquetWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		if err := w.initSchema(record); err != nil {
			return err
		}
	}

	w.buffer = append(w.buffer, w.recordToRow(record))
	if len(w.buffer) >= ParquetBatchSize {
		return w.flushBuffer()
	}
	return nil
}

func (w *ParquetWriter) WriteBatch(records []Record) error {
	for i, r := range records {
		if err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

func (w *ParquetWriter) flushBuffer() error {
	if len(w.buffer) == 0 || w.writer == nil {
		return nil
	}
	if _, err := w.writer.WriteRows(w.buffer); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *ParquetWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushBuffer(); err != nil {
		return err
	}
	if w.writer != nil {
		return w.writer.Flush()
	}
	return nil
}

func (w *ParquetWriter) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.writer != nil {
		if err := w.writer.Close(); err != nil {
			return err
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *ParquetWriter) Path() string {
	return w.path
}
