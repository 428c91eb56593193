package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Driver implements adapter.Driver for Microsoft SQL Server.
type Driver struct {
	session    *common.Session
	capability dbcapabilities.Capability

	mu  sync.Mutex
	cfg adapter.Config
}

// NewDriver creates an unconnected SQL Server driver.
func NewDriver(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
	return &Driver{
		session:    common.NewSession(dbcapabilities.SQLServer, opts.Logger),
		capability: dbcapabilities.MustGet(dbcapabilities.SQLServer),
		cfg:        cfg.Clone(),
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

// Connect opens the connection and selects the configured database.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.IsOpen() {
		return nil
	}

	ep := d.cfg.Endpoint(d.capability.DefaultPort)
	d.session.SetLogContext(ep.Host, ep.Port, ep.Socket, d.cfg.Database)
	logCtx := d.session.LogContext()
	dbLog := d.session.Logger()

	if !common.DriverAvailable(d.capability.SQLDriver) {
		err := adapter.NewConnectionError(d.Type(), ep.Host, ep.Port, nil).
			WithMessage("the SQL Server client library is not available")
		dbLog.LogConnectionFailure(logCtx, err)
		return err
	}

	dbLog.LogConnectionAttempt(logCtx)

	pool, err := sql.Open(d.capability.SQLDriver, buildConnString(d.cfg, ep))
	if err == nil {
		err = d.session.Attach(ctx, pool)
	}
	if err != nil {
		connErr := adapter.NewConnectionError(d.Type(), ep.Host, ep.Port, err).
			WithMessage("could not connect to SQL Server")
		dbLog.LogConnectionFailure(logCtx, connErr)
		return connErr
	}

	dbLog.LogConnectionSuccess(logCtx)

	if d.cfg.SelectOnConnect() && d.cfg.Database != "" {
		if err := d.useDatabase(ctx, d.cfg.Database); err != nil {
			d.session.Detach()
			return err
		}
	}
	return nil
}

// buildConnString renders a sqlserver:// URL. A non-numeric port token in the
// host names an instance, as in host:SQLEXPRESS.
func buildConnString(cfg adapter.Config, ep dbcapabilities.Endpoint) string {
	u := url.URL{Scheme: "sqlserver"}

	user := cfg.User
	if user == "" {
		user = "sa"
	}
	u.User = url.UserPassword(user, cfg.Password)

	if ep.IsSocket() {
		u.Host = ep.BareHost()
		u.Path = "/" + ep.Socket
	} else {
		u.Host = ep.Address()
	}

	q := url.Values{}
	switch strings.ToLower(cfg.SSLMode) {
	case "", "disable":
		q.Set("encrypt", "disable")
	case "allow", "prefer":
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "true")
	default:
		q.Set("encrypt", "true")
	}
	if cfg.Timeout > 0 {
		q.Set("dial timeout", strconv.Itoa(int(cfg.Timeout.Seconds())))
		q.Set("connection timeout", strconv.Itoa(int(cfg.Timeout.Seconds())))
	}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// Connected reports whether the connection is open and alive.
func (d *Driver) Connected(ctx context.Context) bool {
	return d.session.IsOpen() && d.session.Ping(ctx) == nil
}

// Escape doubles single quotes. With extra, LIKE wildcards are bracketed
// since SQL Server has no default LIKE escape character.
func (d *Driver) Escape(value interface{}, extra bool) string {
	text, numeric := common.FormatScalar(value)
	if numeric {
		return text
	}
	text = common.DoubleQuotes(text)
	if extra {
		text = escapeLike(text)
	}
	return text
}

func escapeLike(s string) string {
	r := strings.NewReplacer("[", "[[]", "%", "[%]", "_", "[_]")
	return r.Replace(s)
}

// QuoteName quotes one identifier segment with square brackets.
func (d *Driver) QuoteName(name string) string {
	return common.QuoteWith(name, "[", "]")
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
	cur, err := d.session.Execute(ctx, "USE "+d.QuoteName(database))
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

// Version returns the product version string.
func (d *Driver) Version(ctx context.Context) (string, error) {
	if err := d.ensure(ctx); err != nil {
		return "", err
	}
	v, err := d.session.QueryValue(ctx, "SELECT @@VERSION")
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (d *Driver) ensure(ctx context.Context) error {
	return d.session.Ensure(ctx, d.Connect)
}

// nativeErrorCode extracts the server error number.
func nativeErrorCode(err error) (int, string, bool) {
	var me mssqldb.Error
	if !errors.As(err, &me) {
		return 0, "", false
	}
	return int(me.Number), "", true
}

func init() {
	adapter.Register(dbcapabilities.SQLServer, NewDriver)
	adapter.RegisterErrorCoder(nativeErrorCode)
}

var (
	_ adapter.Driver        = (*Driver)(nil)
	_ adapter.StatsProvider = (*Driver)(nil)
	_ adapter.Debugger      = (*Driver)(nil)
)
