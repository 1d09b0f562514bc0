package exporting

import (
	"slices"

	"AnomalyForge/pkg/injecting"
)

// Extra columns carried by tabular dataset files.
const (
	ColWindow   = "window"
	ColPosition = "position"
	ColClassID  = "class_id"
	ColClass    = "class"
	ColFocus    = "focus"
	ColLabel    = "label"
	ColBatch    = "batch"
)

// Labels used by the test-set table.
const (
	LabelNormal = "Normal"
	LabelAttack = "Attack"
)

// LabeledRecord is one flattened window and its single class label.
type LabeledRecord struct {
	Index string
	Rows  []Record
	Label injecting.Class
	Focus []int
	Batch string
}

// LabelElement is the trailing label: the class id, or empty for Normal.
func (r LabeledRecord) LabelElement() []int {
	if r.Label == injecting.Normal {
		return []int{}
	}
	return []int{int(r.Label)}
}

// Document is the persisted shape: {index: [row..., label]} plus class metadata.
func (r LabeledRecord) Document() Record {
	seq := make([]interface{}, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		seq = append(seq, row)
	}
	seq = append(seq, r.LabelElement())

	doc := Record{
		r.Index:    seq,
		ColClass:   r.Label.String(),
		ColClassID: int(r.Label),
	}
	if r.Focus != nil {
		doc[ColFocus] = r.Focus
	}
	if r.Batch != "" {
		doc[ColBatch] = r.Batch
	}
	return doc
}

// Tabular spreads the window into one row per sample for columnar formats.
func (r LabeledRecord) Tabular() []Record {
	out := make([]Record, len(r.Rows))
	for i, row := range r.Rows {
		t := make(Record, len(row)+5)
		for k, v := range row {
			t[k] = v
		}
		t[ColWindow] = r.Index
		t[ColPosition] = int64(i)
		t[ColClassID] = int64(r.Label)
		t[ColClass] = r.Label.String()
		t[ColFocus] = slices.Contains(r.Focus, i)
		out[i] = t
	}
	return out
}

// TabularColumns is the column order of Tabular rows.
func TabularColumns() []string {
	return append(append([]string{ColWindow, ColPosition}, columns...), ColClassID, ColClass, ColFocus)
}

// Index maps each record's index to the record.
func Index(records []LabeledRecord) map[string]LabeledRecord {
	out := make(map[string]LabeledRecord, len(records))
	for _, r := range records {
		out[r.Index] = r
	}
	return out
}
