package exporting

// DiffRecord returns after-before for every numeric column present in both.
// Non-numeric columns keep the after value.
func DiffRecord(before, after Record) Record {
	if before == nil || after == nil {
		return after
	}

	result := make(Record, len(after))
	for key, afterVal := range after {
		if key == ColTimestamp {
			result[key] = afterVal
			continue
		}
		beforeVal, ok := before[key]
		if !ok {
			result[key] = afterVal
			continue
		}
		if delta, ok := computeDelta(beforeVal, afterVal); ok {
			result[key] = delta
		} else {
			result[key] = afterVal
		}
	}
	return result
}

// DiffRows pairs rows by position and diffs each pair.
func DiffRows(before, after []Record) []Record {
	n := min(len(before), len(after))
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = DiffRecord(before[i], after[i])
	}
	return out
}

// ChangedColumns lists, in Columns() order, the columns whose value moved in any row.
func ChangedColumns(before, after []Record) []string {
	var changed []string
	for _, col := range columns {
		if col == ColTimestamp {
			continue
		}
		for i := 0; i < min(len(before), len(after)); i++ {
			if d, ok := computeDelta(before[i][col], after[i][col]); ok && !isZero(d) {
				changed = append(changed, col)
				break
			}
		}
	}
	return changed
}

func computeDelta(before, after interface{}) (interface{}, bool) {
	if b, ok := before.(int64); ok {
		if a, ok := toInt64(after); ok {
			return a - b, true
		}
	}
	if b, ok := toFloat64(before); ok {
		if a, ok := toFloat64(after); ok {
			return a - b, true
		}
	}
	return nil, false
}

func isZero(v interface{}) bool {
	switch n := v.(type) {
	case int64:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}
