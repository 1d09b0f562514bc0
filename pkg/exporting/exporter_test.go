package exporting

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"AnomalyForge/pkg/injecting"
	"AnomalyForge/pkg/metrics"
)

func labeledFixture() []LabeledRecord {
	f := NewFlattener(WithClock(fixedClock))
	w := metrics.Window{sampleWith(2, 3), sampleWith(2, 3)}
	return []LabeledRecord{
		f.Flatten("0", w, injecting.CPUStorm, []int{0}),
		f.Flatten("1", w, injecting.CPUStorm, []int{1}),
	}
}

// readBack loads a written dataset file with every cell rendered as text.
func readBack(t *testing.T, path, format string) []map[string]string {
	t.Helper()
	switch format {
	case "csv", "tsv":
		return readTable(t, path, map[string]rune{"csv": ',', "tsv": '\t'}[format])
	case "jsonl":
		return readJSONL(t, path)
	case "parquet":
		return readParquet(t, path)
	}
	t.Fatalf("no reader for %s", format)
	return nil
}

func readTable(t *testing.T, path string, comma rune) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	lines, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	var out []map[string]string
	for _, line := range lines[1:] {
		row := make(map[string]string, len(line))
		for i, cell := range line {
			row[lines[0][i]] = cell
		}
		out = append(out, row)
	}
	return out
}

func readJSONL(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var out []map[string]string
	err = ScanLines(f, func(_ int, line []byte) error {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		row := make(map[string]string, len(rec))
		for k, v := range rec {
			row[k] = fmt.Sprint(v)
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLines: %v", err)
	}
	return out
}

func readParquet(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	fields := pf.Schema().Fields()
	var out []map[string]string
	buf := make([]parquet.Row, 16)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, r := range buf[:n] {
				row := make(map[string]string, len(fields))
				for _, v := range r {
					if v.IsNull() {
						continue
					}
					name := fields[v.Column()].Name()
					switch v.Kind() {
					case parquet.Double:
						row[name] = fmt.Sprint(v.Double())
					case parquet.Int64:
						row[name] = fmt.Sprint(v.Int64())
					case parquet.Boolean:
						row[name] = fmt.Sprint(v.Boolean())
					default:
						row[name] = string(v.ByteArray())
					}
				}
				out = append(out, row)
			}
			if err != nil || n == 0 {
				break
			}
		}
		rows.Close()
	}
	return out
}

func TestGetExtension(t *testing.T) {
	cases := map[string]string{"jsonl": ".jsonl", "json": ".jsonl", "CSV": ".csv", "tsv": ".tsv", "parquet": ".parquet", "xml": ".jsonl"}
	for in, want := range cases {
		if got := GetExtension(in); got != want {
			t.Errorf("GetExtension(%q) = %s; want %s", in, got, want)
		}
	}
	if f, ok := Get("JSON"); !ok || f.Name() != "jsonl" {
		t.Error("Get(\"JSON\") did not resolve to jsonl")
	}
}

func TestExporter_TabularRoundTrip(t *testing.T) {
	for _, format := range []string{"csv", "tsv", "jsonl", "parquet"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "train"+GetExtension(format))
			e, err := NewExporter(path, format, NewSchema(TabularColumns()...))
			if err != nil {
				t.Fatalf("NewExporter: %v", err)
			}
			if err := e.WriteLabeled(labeledFixture()); err != nil {
				t.Fatalf("WriteLabeled: %v", err)
			}
			if e.Count() != 4 {
				t.Errorf("Count() = %d; want 4", e.Count())
			}
			if err := e.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}
			if _, err := os.Stat(path + partialSuffix); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("temp file left behind: %v", err)
			}

			rows := readBack(t, path, format)
			if len(rows) != 4 {
				t.Fatalf("len(rows) = %d; want 4", len(rows))
			}
			for _, r := range rows {
				if r[ColClass] != "CPUStorm" {
					t.Errorf("class = %v; want CPUStorm", r[ColClass])
				}
				if r["cpu_percent"] != "42.5" {
					t.Errorf("cpu_percent = %v; want 42.5", r["cpu_percent"])
				}
			}
		})
	}
}

func TestExporter_Documents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.jsonl")
	e, err := NewExporter(path, "jsonl", nil, WithDocuments())
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if err := e.WriteLabeled(labeledFixture()); err != nil {
		t.Fatalf("WriteLabeled: %v", err)
	}
	if err := e.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d; want 2", len(lines))
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &doc); err != nil {
		t.Fatal(err)
	}
	seq, ok := doc["1"].([]interface{})
	if !ok || len(seq) != 3 {
		t.Fatalf("doc[\"1\"] = %v; want 2 rows + label", doc["1"])
	}
	label := seq[2].([]interface{})
	if len(label) != 1 || label[0] != 1.0 {
		t.Errorf("label = %v; want [1]", label)
	}
}

func TestExporter_DocumentsRequireJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	_, err := NewExporter(path, "csv", nil, WithDocuments())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v; want ErrUnsupportedFormat", err)
	}
}

func TestExporter_Abort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "train.csv")
	e, err := NewExporter(path, "csv", NewSchema(TabularColumns()...))
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if err := e.WriteLabeled(labeledFixture()); err != nil {
		t.Fatalf("WriteLabeled: %v", err)
	}
	if err := e.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	for _, p := range []string{path, path + partialSuffix} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s exists after Abort", p)
		}
	}
}

func TestExporter_UnknownFormat(t *testing.T) {
	_, err := NewExporter(filepath.Join(t.TempDir(), "x.bin"), "bin", nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v; want ErrUnsupportedFormat", err)
	}
}

func TestExporter_WriteManifest(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(filepath.Join(dir, "test.csv"), "csv", nil)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	defer e.Abort()

	if err := e.WriteManifest(map[string]int{"rows": 3}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "test_manifest.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"rows": 3`) {
		t.Errorf("manifest = %s", data)
	}
}

func writeTable(t *testing.T, schema *Schema, records ...Record) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	e, err := NewExporter(path, "csv", schema)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if err := e.WriteBatch(records); err != nil {
		e.Abort()
		return "", err
	}
	if err := e.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data), nil
}

func TestTableWriter_HeaderFollowsSchema(t *testing.T) {
	data, err := writeTable(t, NewSchema("b", "a"), Record{"a": int64(1), "b": "x"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if data != "b,a\nx,1\n" {
		t.Errorf("table = %q; want \"b,a\\nx,1\\n\"", data)
	}
}

func TestTableWriter_HeaderWithoutRows(t *testing.T) {
	data, err := writeTable(t, NewSchema(ColTimestamp, "cpu_percent", ColLabel))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if data != "timestamp,cpu_percent,label\n" {
		t.Errorf("table = %q", data)
	}
}

func TestTableWriter_FocusAsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	e, err := NewExporter(path, "csv", NewSchema(TabularColumns()...))
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	if err := e.WriteLabeled(labeledFixture()[:1]); err != nil {
		t.Fatalf("WriteLabeled: %v", err)
	}
	if err := e.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rows := readTable(t, path, ',')
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d; want 2", len(rows))
	}
	for i, want := range []string{"1", "0"} {
		if rows[i][ColFocus] != want {
			t.Errorf("row %d focus = %q; want %q", i, rows[i][ColFocus], want)
		}
		if rows[i][ColPosition] != fmt.Sprint(i) || rows[i][ColClassID] != "1" {
			t.Errorf("row %d position/class_id = %s/%s", i, rows[i][ColPosition], rows[i][ColClassID])
		}
	}
}

func TestTableWriter_ZeroFillsMetrics(t *testing.T) {
	data, err := writeTable(t, NewSchema(ColTimestamp, "cpu_percent", ColLabel, "note"),
		Record{ColTimestamp: "t0", ColLabel: LabelNormal})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.Split(data, "\n")[1]; got != "t0,0,Normal," {
		t.Errorf("row = %q; want \"t0,0,Normal,\"", got)
	}
}

func TestTableWriter_RejectsUnknownColumn(t *testing.T) {
	_, err := writeTable(t, NewSchema("cpu_percent"), Record{"cpu_percent": 1.0, "extra": 2.0})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("err = %v; want ErrUnknownColumn", err)
	}
}

func TestTableWriter_TypedIdentityColumns(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"class as number", Record{ColClass: 3}, "want text"},
		{"label as bool", Record{ColLabel: true}, "want text"},
		{"class id as fraction", Record{ColClassID: 1.5}, "want integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeTable(t, NewSchema(ColClass, ColLabel, ColClassID), tt.rec)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v; want %q", err, tt.want)
			}
		})
	}
}
