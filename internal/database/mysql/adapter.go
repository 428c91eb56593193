package mysql

import (
	"context"
	"fmt"
	"sync"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Driver is the MySQL implementation of adapter.Driver. It also serves
// MariaDB, which speaks the same protocol and dialect.
type Driver struct {
	session    *common.Session
	capability dbcapabilities.Capability

	mu                 sync.Mutex
	cfg                adapter.Config
	noBackslashEscapes bool
}

// NewDriver creates an unconnected MySQL driver. The connection is opened by
// Connect or lazily by the first statement.
func NewDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return newDriver(dbcapabilities.MySQL, cfg, opts), nil
}

// NewMariaDBDriver creates an unconnected MariaDB driver.
func NewMariaDBDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return newDriver(dbcapabilities.MariaDB, cfg, opts), nil
}

func newDriver(dbType dbcapabilities.DatabaseID, cfg adapter.Config, opts adapter.Options) *Driver {
	cfg = cfg.Clone()
	cfg.SQLModes = cfg.EffectiveSQLModes()
	return &Driver{
		session:            common.NewSession(dbType, opts.Logger),
		capability:         dbcapabilities.MustGet(dbType),
		cfg:                cfg,
		noBackslashEscapes: hasMode(cfg.SQLModes, "NO_BACKSLASH_ESCAPES"),
	}
}

// ID returns the unique identifier of this driver instance.
func (d *Driver) ID() string {
	return d.session.ID()
}

// Type returns the backend family.
func (d *Driver) Type() dbcapabilities.DatabaseID {
	return d.session.Type()
}

// Config returns a copy of the configuration. After connecting, SQLModes holds
// the modes the server reports for the session.
func (d *Driver) Config() adapter.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Clone()
}

// Disconnect releases the open cursor and closes the connection.
func (d *Driver) Disconnect() error {
	return d.session.Close()
}

// Connected reports whether the connection is open and alive.
func (d *Driver) Connected(ctx context.Context) bool {
	if !d.session.IsOpen() {
		return false
	}
	return d.session.Ping(ctx) == nil
}

// Escape renders value as text safe to place between single quotes.
func (d *Driver) Escape(value interface{}, extra bool) string {
	d.mu.Lock()
	nbe := d.noBackslashEscapes
	d.mu.Unlock()
	return escapeValue(value, extra, nbe)
}

// QuoteName quotes one identifier segment with backticks.
func (d *Driver) QuoteName(name string) string {
	return QuoteIdentifier(name)
}

// Select makes database the active database.
func (d *Driver) Select(ctx context.Context, database string) (bool, error) {
	if database == "" {
		return false, nil
	}
	if err := d.ensure(ctx); err != nil {
		return false, err
	}
	if err := d.useDatabase(ctx, database); err != nil {
		return false, err
	}

	d.mu.Lock()
	d.cfg.Database = database
	d.mu.Unlock()
	return true, nil
}

func (d *Driver) useDatabase(ctx context.Context, database string) error {
	cur, err := d.session.Execute(ctx, "USE "+QuoteIdentifier(database))
	if err != nil {
		logCtx := d.session.LogContext()
		return adapter.NewConnectionError(d.Type(), logCtx.Host, logCtx.Port, err).
			WithMessage("could not connect to database %s", database)
	}
	return cur.Free()
}

// Execute runs one statement, connecting first when needed.
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

// Version returns the server version string.
func (d *Driver) Version(ctx context.Context) (string, error) {
	if err := d.ensure(ctx); err != nil {
		return "", err
	}
	v, err := d.session.QueryValue(ctx, "SELECT VERSION()")
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// LastInsertID returns the AUTO_INCREMENT value generated by the last INSERT.
func (d *Driver) LastInsertID() int64 {
	return d.session.LastInsertID()
}

// AffectedRows returns the rows changed by the last write statement.
func (d *Driver) AffectedRows() int64 {
	return d.session.AffectedRows()
}

// LockTable takes a write lock on table for this session.
func (d *Driver) LockTable(ctx context.Context, table string) error {
	return d.run(ctx, "LOCK TABLES "+QuoteIdentifier(table)+" WRITE")
}

// UnlockTables releases all table locks held by this session.
func (d *Driver) UnlockTables(ctx context.Context) error {
	return d.run(ctx, "UNLOCK TABLES")
}

// Stats returns activity counters.
func (d *Driver) Stats() adapter.Stats {
	return d.session.Stats()
}

// DebugNextQuery logs the next statement at info level.
func (d *Driver) DebugNextQuery() {
	d.session.DebugNextQuery()
}

func (d *Driver) run(ctx context.Context, query string) error {
	cur, err := d.Execute(ctx, query)
	if err != nil {
		return err
	}
	return cur.Free()
}

func (d *Driver) ensure(ctx context.Context) error {
	return d.session.Ensure(ctx, d.Connect)
}

var (
	_ adapter.Driver        = (*Driver)(nil)
	_ adapter.TableLocker   = (*Driver)(nil)
	_ adapter.StatsProvider = (*Driver)(nil)
	_ adapter.Debugger      = (*Driver)(nil)
)
