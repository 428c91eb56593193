package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// MySQL client error numbers reported when the server cannot be reached.
const (
	crConnectionError = 2002
	crConnHostError   = 2003
)

// Connect opens the connection, applies the session SQL modes and selects the
// configured database. It is a no-op when a connection is already open.
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
			WithMessage("the MySQL client library is not available")
		dbLog.LogConnectionFailure(logCtx, err)
		return err
	}

	dbLog.LogConnectionAttempt(logCtx)

	pool, err := sql.Open(d.capability.SQLDriver, buildDSN(d.cfg, ep))
	if err == nil {
		err = d.session.Attach(ctx, pool)
	}
	if err != nil {
		connErr := adapter.NewConnectionError(d.Type(), ep.Host, ep.Port, err).
			WithMessage("could not connect to MySQL")
		if connErr.Code == 0 && isNetworkError(err) {
			connErr.Code = crConnHostError
			if ep.IsSocket() {
				connErr.Code = crConnectionError
			}
		}
		dbLog.LogConnectionFailure(logCtx, connErr)
		return connErr
	}

	dbLog.LogConnectionSuccess(logCtx)

	d.applySessionModes(ctx, logCtx)

	if d.cfg.SelectOnConnect() && d.cfg.Database != "" {
		if err := d.useDatabase(ctx, d.cfg.Database); err != nil {
			d.session.Detach()
			return err
		}
	}
	return nil
}

// applySessionModes sets the configured sql_mode list and reads back what the
// server actually uses. A rejected mode list is logged, not fatal.
func (d *Driver) applySessionModes(ctx context.Context, logCtx common.DatabaseLogContext) {
	if len(d.cfg.SQLModes) > 0 {
		modes := strings.Join(d.cfg.SQLModes, ",")
		stmt := "SET @@SESSION.sql_mode = '" + escapeValue(modes, false, d.noBackslashEscapes) + "'"
		cur, err := d.session.Execute(ctx, stmt)
		if err != nil {
			d.session.Logger().LogWarning(logCtx, "Could not set session sql_mode", err)
		} else {
			cur.Free()
		}
	}

	v, err := d.session.QueryValue(ctx, "SELECT @@SESSION.sql_mode")
	if err != nil {
		d.session.Logger().LogWarning(logCtx, "Could not read session sql_mode", err)
		return
	}

	modes := []string{}
	for _, m := range strings.Split(fmt.Sprint(v), ",") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, m)
		}
	}
	d.cfg.SQLModes = modes
	d.noBackslashEscapes = hasMode(modes, "NO_BACKSLASH_ESCAPES")
}

// buildDSN renders the go-sql-driver DSN for an endpoint. No database is named
// in the DSN, selection happens after the session modes are applied.
func buildDSN(cfg adapter.Config, ep dbcapabilities.Endpoint) string {
	c := mysql.NewConfig()
	c.User = cfg.UserOrDefault()
	c.Passwd = cfg.Password

	if ep.IsSocket() {
		c.Net = "unix"
		c.Addr = ep.Socket
	} else {
		c.Net = "tcp"
		c.Addr = ep.Address()
	}

	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
		c.ReadTimeout = cfg.Timeout
		c.WriteTimeout = cfg.Timeout
	}

	c.TLSConfig = tlsConfigName(cfg.SSLMode)

	if len(cfg.Options) > 0 {
		c.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			c.Params[k] = v
		}
	}

	return c.FormatDSN()
}

// tlsConfigName maps an sslmode value onto the driver's tls parameter.
func tlsConfigName(sslMode string) string {
	switch strings.ToLower(sslMode) {
	case "", "disable":
		return ""
	case "allow", "prefer":
		return "preferred"
	default:
		return "true"
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// nativeErrorCode extracts the server error number and SQLSTATE.
func nativeErrorCode(err error) (int, string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return 0, "", false
	}
	return int(me.Number), strings.TrimRight(string(me.SQLState[:]), "\x00"), true
}
