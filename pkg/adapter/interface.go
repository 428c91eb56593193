package adapter

import (
	"context"
	"time"

	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Driver owns one live connection to one database instance.
// All driver implementations must implement this interface.
//
// A Driver is not safe for concurrent use; create one Driver per goroutine.
type Driver interface {
	// ID returns a unique identifier for this driver instance.
	ID() string

	// Type returns the backend family this driver talks to.
	Type() dbcapabilities.DatabaseID

	// Config returns a copy of the driver's configuration, including the
	// session SQL modes read back from the server after connect.
	Config() Config

	// Connect opens the connection if it is not open yet. Connect is also the
	// only way to reopen a driver after Disconnect.
	Connect(ctx context.Context) error

	// Disconnect releases the open cursor and closes the connection. It is
	// safe to call when not connected.
	Disconnect() error

	// Connected reports whether the connection is open and answers a ping.
	Connected(ctx context.Context) bool

	// Escape renders value as literal text safe to place between single
	// quotes. With extra set the LIKE wildcards % and _ are escaped too.
	Escape(value interface{}, extra bool) string

	// QuoteName quotes a single identifier segment.
	QuoteName(name string) string

	// Select makes database the active database. An empty name reports false.
	Select(ctx context.Context, database string) (bool, error)

	// Execute runs one statement. Any cursor still open on this driver is
	// released first. Statements that produce no rows return an empty cursor.
	Execute(ctx context.Context, query string) (Cursor, error)

	// Version returns the server version string.
	Version(ctx context.Context) (string, error)

	// LastInsertID returns the id generated by the last non-row statement, or 0.
	LastInsertID() int64

	// AffectedRows returns the rows affected by the last non-row statement, or 0.
	AffectedRows() int64
}

// Cursor is the live handle to one statement's pending result rows.
type Cursor interface {
	// Columns returns the result column names in declaration order.
	Columns() []string

	// Fetch returns the next row. ok is false once the result is exhausted;
	// fetching past the end keeps returning false without an error.
	Fetch() (row Row, ok bool, err error)

	// FetchAll drains the remaining rows.
	FetchAll() ([]Row, error)

	// Free releases the native result resources. It is idempotent.
	Free() error
}

// TableLocker is implemented by drivers that support explicit table locks.
type TableLocker interface {
	LockTable(ctx context.Context, table string) error
	UnlockTables(ctx context.Context) error
}

// Stats reports driver activity counters.
type Stats struct {
	Queries         int64         `json:"queries"`
	QueryTime       time.Duration `json:"query_time"`
	OpenCursors     int64         `json:"open_cursors"`
	CursorsOpened   int64         `json:"cursors_opened"`
	CursorsReleased int64         `json:"cursors_released"`
}

// StatsProvider is implemented by drivers that keep activity counters.
type StatsProvider interface {
	Stats() Stats
}

// Debugger is implemented by drivers that can log the next statement at a
// higher level than usual.
type Debugger interface {
	DebugNextQuery()
}
