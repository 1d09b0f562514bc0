// Package exporting flattens windows into labeled rows and persists them in file formats.
package exporting

import (
	"errors"
	"strings"
)

// Record is a generic map representing a single flattened row or document.
type Record = map[string]interface{}

var ErrUnsupportedFormat = errors.New("unsupported format")

// Schema fixes column order for writers that need it. A nil schema lets the
// writer derive sorted columns from the first record.
type Schema struct {
	Columns []string
}

func NewSchema(columns ...string) *Schema {
	return &Schema{Columns: columns}
}

// Format defines the interface for a data format.
type Format interface {
	Name() string
	Extensions() []string
	Writer() Writer
}

// Writer writes records to a file.
type Writer interface {
	Init(path string, schema *Schema) error
	Write(record Record) error
	WriteBatch(records []Record) error
	Flush() error
	Close() error
	Path() string
}

var registry = make(map[string]Format)

// Register adds a format to the registry.
func Register(f Format) {
	registry[strings.ToLower(f.Name())] = f
}

// Get returns a format by name. "json" is accepted for jsonl.
func Get(name string) (Format, bool) {
	name = strings.ToLower(name)
	if name == "json" {
		name = "jsonl"
	}
	f, ok := registry[name]
	return f, ok
}

// GetExtension returns the primary file extension for a format name, falling
// back to .jsonl for unknown names.
func GetExtension(format string) string {
	if f, ok := Get(format); ok {
		return f.Extensions()[0]
	}
	return ".jsonl"
}
