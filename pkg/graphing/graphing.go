// Package graphing renders before/after views of injected windows.
package graphing

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"AnomalyForge/pkg/exporting"
)

// Comparison is one window flattened before and after injection.
type Comparison struct {
	Title  string
	Class  string
	Offset int
	Focus  []int
	Before []exporting.Record
	After  []exporting.Record
}

// ColumnChange summarizes how far one column moved.
type ColumnChange struct {
	Column   string
	MaxDelta float64
	Rows     int
}

// Changes lists the moved columns in column order.
func (c *Comparison) Changes() []ColumnChange {
	cols := exporting.ChangedColumns(c.Before, c.After)
	deltas := exporting.DiffRows(c.Before, c.After)

	out := make([]ColumnChange, 0, len(cols))
	for _, col := range cols {
		change := ColumnChange{Column: col}
		for _, d := range deltas {
			v := toFloat64(d[col])
			if v == 0 {
				continue
			}
			change.Rows++
			if abs(v) > abs(change.MaxDelta) {
				change.MaxDelta = v
			}
		}
		out = append(out, change)
	}
	return out
}

// RenderComparison writes an HTML page with one chart per changed column.
func RenderComparison(w io.Writer, c *Comparison) error {
	if len(c.Before) != len(c.After) {
		return fmt.Errorf("before has %d rows, after has %d", len(c.Before), len(c.After))
	}

	page := components.NewPage()
	page.PageTitle = c.Title

	changes := c.Changes()
	for _, ch := range changes {
		page.AddCharts(createComparisonChart(c, ch.Column))
		page.AddCharts(createDeltaChart(c, ch.Column))
	}

	var buf strings.Builder
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}

	summary, err := renderSummary(c, changes)
	if err != nil {
		return err
	}
	html := buf.String()
	html = strings.Replace(html, "<body>", "<body>\n"+summary, 1)
	html = strings.Replace(html, "</head>", customCSS+"</head>", 1)

	_, err = io.WriteString(w, html)
	return err
}

// WriteComparison renders c into path, creating parent directories.
func WriteComparison(path string, c *Comparison) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := RenderComparison(&buf, c); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func formatName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
