package probing

import (
	"os"
	"path/filepath"
	"testing"
)

const statFixture = `cpu  4705 356 584 3699 23 23 0 0 0 0
cpu0 1393280 32966 572056 13343292 6130 0 17875 0 0 0
intr 1462898 0 9 0 0 0 0 0 0 1
ctxt 115315
btime 1769040000
processes 3171
softirq 1234567 0 118 3 2 0
`

func writeFixture(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stat")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFieldCounters(t *testing.T) {
	lines, err := FileLines(writeFixture(t, statFixture))
	if err != nil {
		t.Fatalf("FileLines: %v", err)
	}

	got, err := FieldCounters(lines, "ctxt", "intr", "softirq", "missing")
	if err != nil {
		t.Fatalf("FieldCounters: %v", err)
	}
	want := map[string]int64{"ctxt": 115315, "intr": 1462898, "softirq": 1234567}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d; want %d", k, got[k], v)
		}
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing key present in result")
	}
}

func TestFieldCounters_BadNumber(t *testing.T) {
	if _, err := FieldCounters([]string{"ctxt abc"}, "ctxt"); err == nil {
		t.Error("expected parse error")
	}
}

func TestFileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := File(missing); err == nil {
		t.Error("File on missing path returned nil error")
	}
	if _, err := FileInt(writeFixture(t, "x\n")); err == nil {
		t.Error("FileInt on non-number returned nil error")
	}
	if v, err := FileInt(writeFixture(t, " 42\n")); err != nil || v != 42 {
		t.Errorf("FileInt = %d, %v; want 42, nil", v, err)
	}
}

func TestFileKV(t *testing.T) {
	kv, err := FileKV(writeFixture(t, "MemTotal:  16 kB\nSwapFree: 0 kB\n"), ":")
	if err != nil {
		t.Fatal(err)
	}
	if kv["MemTotal"] != "16 kB" || kv["SwapFree"] != "0 kB" {
		t.Errorf("FileKV = %v", kv)
	}
}

func BenchmarkFileLines(b *testing.B) {
	path := writeFixture(b, statFixture)
	for i := 0; i < b.N; i++ {
		FileLines(path)
	}
}

func BenchmarkFieldCounters(b *testing.B) {
	lines, _ := FileLines(writeFixture(b, statFixture))
	for i := 0; i < b.N; i++ {
		FieldCounters(lines, "ctxt", "intr", "softirq")
	}
}

func BenchmarkParseInt64(b *testing.B) {
	s := "123456789"
	for i := 0; i < b.N; i++ {
		ParseInt64(s)
	}
}
