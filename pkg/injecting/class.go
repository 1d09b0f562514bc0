// Package injecting mutates telemetry windows into labeled anomaly patterns.
package injecting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Class identifies an anomaly pattern. Ids 0-9 are stable and persisted as labels.
type Class int

// Normal marks a window that carries no injected anomaly.
const Normal Class = -1

const (
	LoadProcess Class = iota
	CPUStorm
	NetTraffic
	NetDown
	PHighCPU
	PHighMem
	MemLeak
	SwapThrash
	DiskFull
	DiskIOErr
	numClasses
)

// NumClasses is the number of injectable anomaly classes.
const NumClasses = int(numClasses)

var ErrUnknownClass = errors.New("unknown anomaly class")

var classTags = [numClasses]string{
	LoadProcess: "Load-Process",
	CPUStorm:    "CPUStorm",
	NetTraffic:  "NetTraffic",
	NetDown:     "NetDown",
	PHighCPU:    "PHighCPU",
	PHighMem:    "PHighMem",
	MemLeak:     "MemLeak",
	SwapThrash:  "SwapThrash",
	DiskFull:    "DiskFull",
	DiskIOErr:   "DiskIoErr",
}

func (c Class) String() string {
	if c == Normal {
		return "Normal"
	}
	if !c.Valid() {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return classTags[c]
}

// Valid reports whether c is one of the injectable classes.
func (c Class) Valid() bool {
	return c >= 0 && c < numClasses
}

// Classes returns every injectable class in id order.
func Classes() []Class {
	out := make([]Class, numClasses)
	for i := range out {
		out[i] = Class(i)
	}
	return out
}

// ParseClass accepts a numeric id, a tag (case-insensitive) or "normal".
func ParseClass(s string) (Class, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "normal") {
		return Normal, nil
	}
	if id, err := strconv.Atoi(s); err == nil {
		c := Class(id)
		if c == Normal || c.Valid() {
			return c, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrUnknownClass, id)
	}
	for i, tag := range classTags {
		if strings.EqualFold(tag, s) {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// ParseClasses parses a comma separated list; "all" or empty selects every class.
func ParseClasses(s string) ([]Class, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return Classes(), nil
	}
	var out []Class
	seen := make(map[Class]bool)
	for _, part := range strings.Split(s, ",") {
		c, err := ParseClass(part)
		if err != nil {
			return nil, err
		}
		if c == Normal {
			return nil, fmt.Errorf("%w: normal is not injectable", ErrUnknownClass)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
