package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// MemoryDatabase is the database name for a private in-memory database.
const MemoryDatabase = ":memory:"

// Driver implements adapter.Driver for SQLite files.
type Driver struct {
	session *common.Session

	mu  sync.Mutex
	cfg adapter.Config
}

// NewDriver creates an unconnected SQLite driver. The configured database is
// the file path, an empty name opens a private in-memory database.
func NewDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return &Driver{
		session: common.NewSession(dbcapabilities.SQLite, opts.Logger),
		cfg:     cfg.Clone(),
	}, nil
}

func (d *Driver) ID() string                      { return d.session.ID() }
func (d *Driver) Type() dbcapabilities.DatabaseID { return d.session.Type() }
func (d *Driver) LastInsertID() int64             { return d.session.LastInsertID() }
func (d *Driver) AffectedRows() int64             { return d.session.AffectedRows() }
func (d *Driver) Stats() adapter.Stats            { return d.session.Stats() }
func (d *Driver) DebugNextQuery()                 { d.session.DebugNextQuery() }
func (d *Driver) Disconnect() error               { return d.session.Close() }

// Config returns a copy of the configuration.
func (d *Driver) Config() adapter.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Clone()
}

// Connect opens the database file. It is a no-op when already open.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.IsOpen() {
		return nil
	}
	return d.openLocked(ctx, d.cfg.Database)
}

func (d *Driver) openLocked(ctx context.Context, database string) error {
	if database == "" {
		database = MemoryDatabase
	}
	d.session.SetLogContext("", 0, "", database)
	logCtx := d.session.LogContext()
	dbLog := d.session.Logger()

	if !common.DriverAvailable("sqlite3") {
		err := adapter.NewConnectionError(d.Type(), "", 0, nil).
			WithMessage("the SQLite client library is not available")
		dbLog.LogConnectionFailure(logCtx, err)
		return err
	}

	dbLog.LogConnectionAttempt(logCtx)

	pool, err := sql.Open("sqlite3", buildDSN(database, d.cfg.Options))
	if err == nil {
		err = d.session.Attach(ctx, pool)
	}
	if err != nil {
		connErr := adapter.NewConnectionError(d.Type(), "", 0, err).
			WithMessage("could not open SQLite database %s", database)
		dbLog.LogConnectionFailure(logCtx, connErr)
		return connErr
	}

	dbLog.LogConnectionSuccess(logCtx)
	return nil
}

// buildDSN renders a go-sqlite3 file URI with a busy timeout and foreign keys
// enabled. Options override the defaults.
func buildDSN(database string, options map[string]string) string {
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	for k, v := range options {
		q.Set(k, v)
	}
	return "file:" + database + "?" + q.Encode()
}

// Connected reports whether the database is open.
func (d *Driver) Connected(ctx context.Context) bool {
	return d.session.IsOpen() && d.session.Ping(ctx) == nil
}

// Escape doubles single quotes and drops NUL bytes.
func (d *Driver) Escape(value interface{}, extra bool) string {
	text, numeric := common.FormatScalar(value)
	if numeric {
		return text
	}
	text = common.DoubleQuotes(strings.ReplaceAll(text, "\x00", ""))
	if extra {
		text = common.EscapeLike(text)
	}
	return text
}

// QuoteName quotes one identifier segment with double quotes.
func (d *Driver) QuoteName(name string) string {
	return common.QuoteWith(name, `"`, `"`)
}

// Select closes the current file and opens another one.
func (d *Driver) Select(ctx context.Context, database string) (bool, error) {
	if database == "" {
		return false, nil
	}
	if err := d.ensure(ctx); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.session.Detach()
	if err := d.openLocked(ctx, database); err != nil {
		return false, err
	}
	d.cfg.Database = database
	return true, nil
}

// Execute runs one statement, opening the database first when needed.
func (d *Driver) Execute(ctx context.Context, query string) (adapter.Cursor, error) {
	if err := d.ensure(ctx); err != nil {
		return nil, err
	}
	cur, err := d.session.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// Version returns the SQLite library version.
func (d *Driver) Version(ctx context.Context) (string, error) {
	if err := d.ensure(ctx); err != nil {
		return "", err
	}
	v, err := d.session.QueryValue(ctx, "SELECT sqlite_version()")
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (d *Driver) ensure(ctx context.Context) error {
	return d.session.Ensure(ctx, d.Connect)
}

// nativeErrorCode extracts the extended SQLite result code.
func nativeErrorCode(err error) (int, string, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return 0, "", false
	}
	return int(se.ExtendedCode), "", true
}

func init() {
	adapter.Register(dbcapabilities.SQLite, NewDriver)
	adapter.RegisterErrorCoder(nativeErrorCode)
}

var (
	_ adapter.Driver        = (*Driver)(nil)
	_ adapter.StatsProvider = (*Driver)(nil)
	_ adapter.Debugger      = (*Driver)(nil)
)
