package graphing

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
)

// summaryData feeds the header rendered above the charts.
type summaryData struct {
	Title   string
	Class   string
	Offset  int
	Rows    int
	Focus   []int
	Changes []ColumnChange
}

var templates = template.Must(template.New("").Funcs(templateFuncs).Parse(`
{{define "summary"}}
<div class="summary">
    <div class="summary-header">
        <h1>{{.Title}}</h1>
        <span class="class-tag">{{.Class}}</span>
    </div>
    <table>
        <tr><td>Window offset</td><td>{{.Offset}}</td></tr>
        <tr><td>Rows</td><td>{{.Rows}}</td></tr>
        <tr><td>Focus</td><td>{{.Focus | joinInts}}</td></tr>
    </table>
    {{if .Changes}}
    <h3>Changed columns</h3>
    <table>
        <tr><th>Column</th><th>Rows moved</th><th>Largest delta</th></tr>
        {{range .Changes}}
        <tr><td>{{.Column}}</td><td>{{.Rows}}</td><td>{{.MaxDelta | formatDelta}}</td></tr>
        {{end}}
    </table>
    {{else}}
    <p class="no-change">No column changed.</p>
    {{end}}
</div>
{{end}}
`))

var templateFuncs = template.FuncMap{
	"joinInts":    joinIntsFunc,
	"formatDelta": formatDeltaFunc,
}

const customCSS = `
<style>
* {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
}
body {
    max-width: 1400px;
    margin: 0 auto;
    padding: 20px;
}
.summary {
    margin-bottom: 20px;
    padding: 15px;
    background: #f5f5f5;
    border: 1px solid #ddd;
}
.summary-header {
    border-bottom: 2px solid #333;
    padding-bottom: 10px;
    margin-bottom: 15px;
}
.summary-header h1 {
    display: inline;
    margin: 0;
    font-size: 18px;
}
.class-tag {
    margin-left: 10px;
    font-family: monospace;
    color: #a50026;
}
.summary td, .summary th {
    padding: 2px 12px 2px 0;
    text-align: left;
    font-size: 13px;
}
.no-change {
    color: #666;
}
</style>
`

func renderSummary(c *Comparison, changes []ColumnChange) (string, error) {
	data := summaryData{
		Title:   c.Title,
		Class:   c.Class,
		Offset:  c.Offset,
		Rows:    len(c.After),
		Focus:   c.Focus,
		Changes: changes,
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "summary", data); err != nil {
		return "", fmt.Errorf("failed to execute summary template: %w", err)
	}
	return buf.String(), nil
}

func joinIntsFunc(v []int) string {
	if len(v) == 0 {
		return "-"
	}
	var buf bytes.Buffer
	for i, n := range v {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Itoa(n))
	}
	return buf.String()
}

func formatDeltaFunc(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

// toFloat64 safely converts interface to float64.
func toFloat64(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}
