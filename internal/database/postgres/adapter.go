package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Driver implements adapter.Driver for PostgreSQL and CockroachDB.
type Driver struct {
	session    *common.Session
	capability dbcapabilities.Capability

	mu  sync.Mutex
	cfg adapter.Config
}

// NewDriver creates an unconnected PostgreSQL driver.
func NewDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return newDriver(dbcapabilities.PostgreSQL, cfg, opts), nil
}

// NewCockroachDriver creates an unconnected CockroachDB driver.
func NewCockroachDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return newDriver(dbcapabilities.CockroachDB, cfg, opts), nil
}

func newDriver(dbType dbcapabilities.DatabaseID, cfg adapter.Config, opts adapter.Options) *Driver {
	return &Driver{
		session:    common.NewSession(dbType, opts.Logger),
		capability: dbcapabilities.MustGet(dbType),
		cfg:        cfg.Clone(),
	}
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

// Connected reports whether the connection is open and alive.
func (d *Driver) Connected(ctx context.Context) bool {
	return d.session.IsOpen() && d.session.Ping(ctx) == nil
}

// Escape renders value as text safe to place between single quotes under
// standard_conforming_strings.
func (d *Driver) Escape(value interface{}, extra bool) string {
	return escapeValue(value, extra)
}

// QuoteName quotes one identifier segment with double quotes.
func (d *Driver) QuoteName(name string) string {
	return QuoteIdentifier(name)
}

// Select switches to another database. PostgreSQL binds a session to one
// database, so this reconnects.
func (d *Driver) Select(ctx context.Context, database string) (bool, error) {
	if database == "" {
		return false, nil
	}
	if err := d.ensure(ctx); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.session.Detach(); err != nil {
		d.session.Logger().LogWarning(d.session.LogContext(), "Could not close previous connection", err)
	}
	if err := d.connectLocked(ctx, database); err != nil {
		return false, d.selectError(database, err)
	}
	d.cfg.Database = database
	return true, nil
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
	v, err := d.session.QueryValue(ctx, "SHOW server_version")
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (d *Driver) ensure(ctx context.Context) error {
	return d.session.Ensure(ctx, d.Connect)
}

var (
	_ adapter.Driver        = (*Driver)(nil)
	_ adapter.StatsProvider = (*Driver)(nil)
	_ adapter.Debugger      = (*Driver)(nil)
)
