// Package adaptertest provides an in-memory adapter.Driver that records the
// statements it receives and replays queued results. It is meant for tests of
// code built on top of the driver layer.
package adaptertest

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Response is the scripted outcome of one statement.
type Response struct {
	Columns  []string
	Rows     [][]interface{}
	InsertID int64
	Affected int64
	Err      error
}

// Driver is a scripted adapter.Driver. Responses are consumed in order, one
// per executed statement; with the queue empty a statement yields no rows.
type Driver struct {
	mu sync.Mutex

	id         string
	dbType     dbcapabilities.DatabaseID
	cfg        adapter.Config
	connected  bool
	closed     bool
	ConnectErr error

	queue    []Response
	executed []string
	cursor   *Cursor
	insertID int64
	affected int64
	opened   int
	freed    int
}

// New creates a fake MySQL flavoured driver.
func New(cfg adapter.Config) *Driver {
	return &Driver{
		id:     uuid.NewString(),
		dbType: dbcapabilities.MySQL,
		cfg:    cfg.Clone(),
	}
}

// Constructor adapts New to adapter.Constructor for registry tests.
func Constructor(cfg adapter.Config, _ adapter.Options) (adapter.Driver, error) {
	return New(cfg), nil
}

// Queue appends scripted responses.
func (d *Driver) Queue(responses ...Response) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, responses...)
	return d
}

// QueueRows appends a response returning rows.
func (d *Driver) QueueRows(columns []string, rows ...[]interface{}) *Driver {
	return d.Queue(Response{Columns: columns, Rows: rows})
}

// Executed returns the statements received so far.
func (d *Driver) Executed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

// LastQuery returns the most recent statement, or "".
func (d *Driver) LastQuery() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.executed) == 0 {
		return ""
	}
	return d.executed[len(d.executed)-1]
}

// OpenCursors returns the number of cursors not yet released.
func (d *Driver) OpenCursors() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.freed
}

func (d *Driver) ID() string                      { return d.id }
func (d *Driver) Type() dbcapabilities.DatabaseID { return d.dbType }

// Config returns a copy of the configuration.
func (d *Driver) Config() adapter.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Clone()
}

// Connect marks the driver connected unless ConnectErr is set.
func (d *Driver) Connect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ConnectErr != nil {
		return adapter.NewConnectionError(d.dbType, d.cfg.Host, d.cfg.Port, d.ConnectErr)
	}
	d.connected = true
	d.closed = false
	return nil
}

// Disconnect releases the cursor and marks the driver closed.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseLocked()
	d.connected = false
	d.closed = true
	return nil
}

// Connected reports the connection flag.
func (d *Driver) Connected(context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Escape doubles single quotes and backslashes.
func (d *Driver) Escape(value interface{}, extra bool) string {
	text, numeric := common.FormatScalar(value)
	if numeric {
		return text
	}
	text = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(text)
	if extra {
		text = strings.NewReplacer("%", `\%`, "_", `\_`).Replace(text)
	}
	return text
}

// QuoteName quotes with backticks.
func (d *Driver) QuoteName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Select records the database name.
func (d *Driver) Select(_ context.Context, database string) (bool, error) {
	if database == "" {
		return false, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.Database = database
	return true, nil
}

// Execute records query and replays the next queued response.
func (d *Driver) Execute(_ context.Context, query string) (adapter.Cursor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, &adapter.ConnectionError{DatabaseType: d.dbType, Cause: adapter.ErrConnectionClosed}
	}
	d.connected = true
	d.releaseLocked()
	d.executed = append(d.executed, query)

	var resp Response
	if len(d.queue) > 0 {
		resp = d.queue[0]
		d.queue = d.queue[1:]
	}
	if resp.Err != nil {
		return nil, adapter.NewExecutionError(d.dbType, query, resp.Err)
	}

	d.insertID = resp.InsertID
	d.affected = resp.Affected

	cur := &Cursor{driver: d, columns: resp.Columns, rows: resp.Rows}
	if resp.Columns != nil {
		d.cursor = cur
		d.opened++
	} else {
		cur.freed = true
	}
	return cur, nil
}

func (d *Driver) releaseLocked() {
	if d.cursor != nil && !d.cursor.freed {
		d.cursor.freed = true
		d.freed++
	}
	d.cursor = nil
}

// Version returns a fixed version string.
func (d *Driver) Version(context.Context) (string, error) { return "8.0.0-fake", nil }

// LastInsertID returns the scripted insert id of the last statement.
func (d *Driver) LastInsertID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertID
}

// AffectedRows returns the scripted affected count of the last statement.
func (d *Driver) AffectedRows() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.affected
}

// Cursor replays scripted rows.
type Cursor struct {
	driver  *Driver
	columns []string
	rows    [][]interface{}
	pos     int
	freed   bool
}

// Columns returns the scripted column names.
func (c *Cursor) Columns() []string { return append([]string(nil), c.columns...) }

// Fetch returns the next scripted row.
func (c *Cursor) Fetch() (adapter.Row, bool, error) {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()

	if c.freed && c.columns != nil {
		return adapter.Row{}, false, adapter.ErrCursorClosed
	}
	if c.pos >= len(c.rows) {
		return adapter.Row{}, false, nil
	}
	row := adapter.NewRow(c.columns, c.rows[c.pos])
	c.pos++
	return row, true, nil
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

// Free releases the cursor. It is idempotent.
func (c *Cursor) Free() error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()
	if c.driver.cursor == c {
		c.driver.releaseLocked()
	}
	return nil
}

var _ adapter.Driver = (*Driver)(nil)
