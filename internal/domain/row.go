package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is one result row with its column order preserved.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Int64 returns the named column as an int64. Numeric driver types and
// numeric strings are accepted.
func (r Row) Int64(column string) (int64, error) {
	v, ok := r.Get(column)
	if !ok {
		return 0, fmt.Errorf("column %q not in row", column)
	}
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case string:
		out, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", column, err)
		}
		return out, nil
	default:
		return 0, fmt.Errorf("column %q has non-numeric type %T", column, v)
	}
}

// Float64 returns the named column as a float64, treating NULL as zero.
func (r Row) Float64(column string) (float64, error) {
	v, ok := r.Get(column)
	if !ok {
		return 0, fmt.Errorf("column %q not in row", column)
	}
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		out, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", column, err)
		}
		return out, nil
	default:
		return 0, fmt.Errorf("column %q has non-numeric type %T", column, v)
	}
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", c, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
