package adapter

import (
	"bytes"
	"encoding/json"
)

// Row is an ordered mapping from column name to scalar value. Values are nil,
// int64, float64, string, bool or time.Time.
type Row struct {
	columns []string
	values  []interface{}
	index   map[string]int
}

// NewRow builds a row from parallel column and value slices. When a column
// name repeats, the first position is kept and the later value wins.
func NewRow(columns []string, values []interface{}) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make([]interface{}, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		if pos, dup := r.index[col]; dup {
			r.values[pos] = v
			continue
		}
		r.index[col] = len(r.columns)
		r.columns = append(r.columns, col)
		r.values = append(r.values, v)
	}
	return r
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Columns returns the column names in result order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the values in column order.
func (r Row) Values() []interface{} {
	out := make([]interface{}, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value of the named column.
func (r Row) Get(column string) (interface{}, bool) {
	pos, ok := r.index[column]
	if !ok {
		return nil, false
	}
	return r.values[pos], true
}

// Value returns the value of the named column or nil.
func (r Row) Value(column string) interface{} {
	v, _ := r.Get(column)
	return v
}

// At returns the value at position i or nil when out of range.
func (r Row) At(i int) interface{} {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Has reports whether the row carries the named column.
func (r Row) Has(column string) bool {
	_, ok := r.index[column]
	return ok
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.columns))
	for i, col := range r.columns {
		out[col] = r.values[i]
	}
	return out
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
