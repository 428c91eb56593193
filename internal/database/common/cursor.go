package common

import (
	"database/sql"
	"math"
	"strconv"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

// Cursor wraps the *sql.Rows of one statement. Statements without a result
// set get a cursor with nil rows that is exhausted from the start.
type Cursor struct {
	session   *Session
	rows      *sql.Rows
	columns   []string
	exhausted bool
	freed     bool
}

// Columns returns the result column names in declaration order.
func (c *Cursor) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// Fetch returns the next row. Past the end it keeps returning ok == false.
func (c *Cursor) Fetch() (adapter.Row, bool, error) {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()

	if c.freed {
		return adapter.Row{}, false, adapter.ErrCursorClosed
	}
	if c.exhausted || c.rows == nil {
		return adapter.Row{}, false, nil
	}

	if !c.rows.Next() {
		c.exhausted = true
		if err := c.rows.Err(); err != nil {
			return adapter.Row{}, false, err
		}
		return adapter.Row{}, false, nil
	}

	values := make([]interface{}, len(c.columns))
	targets := make([]interface{}, len(c.columns))
	for i := range values {
		targets[i] = &values[i]
	}

	if err := c.rows.Scan(targets...); err != nil {
		return adapter.Row{}, false, err
	}

	for i, v := range values {
		values[i] = NormalizeValue(v)
	}

	return adapter.NewRow(c.columns, values), true, nil
}

// FetchAll drains the remaining rows.
func (c *Cursor) FetchAll() ([]adapter.Row, error) {
	var rows []adapter.Row
	for {
		row, ok, err := c.Fetch()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Free releases the result set. It is idempotent.
func (c *Cursor) Free() error {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.freeLocked()
}

func (c *Cursor) freeLocked() error {
	if c.freed {
		return nil
	}
	c.freed = true

	if c.session.cursor == c {
		c.session.cursor = nil
	}
	if c.rows == nil {
		return nil
	}

	c.session.released++
	return c.rows.Close()
}

// NormalizeValue converts native client values into the row value set:
// nil, int64, float64, string, bool and time.Time.
func NormalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func normalizeUint(u uint64) interface{} {
	if u > math.MaxInt64 {
		return strconv.FormatUint(u, 10)
	}
	return int64(u)
}
