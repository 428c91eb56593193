package postgres

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/redbco/redb-dbaccess/internal/database/common"
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

// Connect opens the connection to the configured database, or the server's
// default database for the user when selection is disabled. It is a no-op
// when a connection is already open.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session.IsOpen() {
		return nil
	}
	database := ""
	if d.cfg.SelectOnConnect() {
		database = d.cfg.Database
	}
	return d.connectLocked(ctx, database)
}

func (d *Driver) connectLocked(ctx context.Context, database string) error {
	ep := d.cfg.Endpoint(d.capability.DefaultPort)
	d.session.SetLogContext(ep.Host, ep.Port, ep.Socket, database)
	logCtx := d.session.LogContext()
	dbLog := d.session.Logger()

	if !common.DriverAvailable(d.capability.SQLDriver) {
		err := adapter.NewConnectionError(d.Type(), ep.Host, ep.Port, nil).
			WithMessage("the %s client library is not available", d.capability.Name)
		dbLog.LogConnectionFailure(logCtx, err)
		return err
	}

	dbLog.LogConnectionAttempt(logCtx)

	connConfig, err := pgx.ParseConfig(buildConnString(d.cfg, ep, database))
	if err == nil {
		if d.cfg.Timeout > 0 {
			connConfig.ConnectTimeout = d.cfg.Timeout
		}
		err = d.session.Attach(ctx, stdlib.OpenDB(*connConfig))
	}
	if err != nil {
		connErr := adapter.NewConnectionError(d.Type(), ep.Host, ep.Port, err).
			WithMessage("could not connect to %s", d.capability.Name)
		dbLog.LogConnectionFailure(logCtx, connErr)
		return connErr
	}

	dbLog.LogConnectionSuccess(logCtx)
	return nil
}

// buildConnString renders a postgres:// URL understood by pgx. Socket
// endpoints pass the socket directory through the host parameter.
func buildConnString(cfg adapter.Config, ep dbcapabilities.Endpoint, database string) string {
	u := url.URL{
		Scheme: "postgres",
		Path:   "/" + database,
	}

	user := cfg.User
	if user == "" {
		user = "postgres"
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(user, cfg.Password)
	} else {
		u.User = url.User(user)
	}

	q := url.Values{}
	if ep.IsSocket() {
		q.Set("host", ep.Socket)
		q.Set("port", strconv.Itoa(portOrDefault(cfg.Port, ep)))
	} else {
		u.Host = ep.Address()
	}

	sslMode := strings.ToLower(cfg.SSLMode)
	if sslMode == "" {
		sslMode = "prefer"
	}
	q.Set("sslmode", sslMode)

	for k, v := range cfg.Options {
		q.Set(k, v)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func portOrDefault(port int, ep dbcapabilities.Endpoint) int {
	if port > 0 {
		return port
	}
	if ep.Port > 0 {
		return ep.Port
	}
	return 5432
}

// nativeErrorCode extracts the SQLSTATE of a server error. PostgreSQL has no
// numeric error numbers, so the code is always zero.
func nativeErrorCode(err error) (int, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", false
	}
	return 0, pgErr.Code, true
}

func (d *Driver) selectError(database string, err error) error {
	logCtx := d.session.LogContext()
	return adapter.NewConnectionError(d.Type(), logCtx.Host, logCtx.Port, err).
		WithMessage("could not connect to database %s", database)
}
