// Package probing reads small kernel text files such as /proc/stat.
package probing

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcStat is the kernel activity file read for scheduler counters.
const ProcStat = "/proc/stat"

// File reads a file into a string.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileInt reads a file and parses it as int64
func FileInt(path string) (int64, error) {
	v, err := File(path)
	if err != nil {
		return 0, err
	}
	return ParseInt64(v)
}

// FileLines reads a file into lines
func FileLines(path string) ([]string, error) {
	v, err := File(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(v, "\n"), nil
}

// FileKV reads a key-value file like /proc/meminfo
func FileKV(path, sep string) (map[string]string, error) {
	lines, err := FileLines(path)
	if err != nil {
		return nil, err
	}
	kv := make(map[string]string)
	for _, line := range lines {
		idx := strings.Index(line, sep)
		if idx != -1 {
			key := strings.TrimSpace(line[:idx])
			val := strings.TrimSpace(line[idx+len(sep):])
			kv[key] = val
		}
	}
	return kv, nil
}

// FieldCounters returns the first numeric field after each key on lines of the
// form "key n ...". Keys not present are absent from the result.
func FieldCounters(lines []string, keys ...string) (map[string]int64, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	out := make(map[string]int64, len(keys))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || !want[fields[0]] {
			continue
		}
		v, err := ParseInt64(fields[1])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fields[0], err)
		}
		out[fields[0]] = v
	}
	return out, nil
}

// ParseInt64 parses a trimmed int64.
func ParseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// ParseFloat64 parses a trimmed float64.
func ParseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Exists checks if a path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
