package common

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

// Session holds the single connection a driver owns, the one cursor slot and
// the outcome of the last statement. Variants embed it and add dialect
// specific connect, escape and select logic.
type Session struct {
	dbType dbcapabilities.DatabaseID
	id     string
	log    *DatabaseLogger

	mu        sync.Mutex
	logCtx    DatabaseLogContext
	pool      *sql.DB
	conn      *sql.Conn
	cursor    *Cursor
	result    sql.Result
	closed    bool
	debugNext bool

	queries   int64
	queryTime time.Duration
	opened    int64
	released  int64
}

// NewSession creates an unconnected session.
func NewSession(dbType dbcapabilities.DatabaseID, l *logger.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		dbType: dbType,
		id:     id,
		log:    NewDatabaseLogger(l),
		logCtx: DatabaseLogContext{DatabaseType: string(dbType), DriverID: id},
	}
}

// ID returns the unique identifier of this driver instance.
func (s *Session) ID() string { return s.id }

// Type returns the backend family.
func (s *Session) Type() dbcapabilities.DatabaseID { return s.dbType }

// Logger returns the session's database logger.
func (s *Session) Logger() *DatabaseLogger { return s.log }

// SetLogContext records where the session connects to, for log messages.
func (s *Session) SetLogContext(host string, port int, socket, database string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logCtx.Host = host
	s.logCtx.Port = port
	s.logCtx.Socket = socket
	s.logCtx.Database = database
}

// LogContext returns the current log context.
func (s *Session) LogContext() DatabaseLogContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logCtx
}

// IsOpen reports whether a connection is attached.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// WasClosed reports whether the session was explicitly closed and not reopened.
func (s *Session) WasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Ensure makes sure a connection is open, calling connect lazily. After an
// explicit Close it fails with ErrConnectionClosed instead of reconnecting.
func (s *Session) Ensure(ctx context.Context, connect func(context.Context) error) error {
	s.mu.Lock()
	open, closed, logCtx := s.conn != nil, s.closed, s.logCtx
	s.mu.Unlock()

	if open {
		return nil
	}
	if closed {
		return s.closedError(logCtx)
	}
	return connect(ctx)
}

func (s *Session) closedError(ctx DatabaseLogContext) error {
	return &adapter.ConnectionError{
		DatabaseType: s.dbType,
		Host:         ctx.Host,
		Port:         ctx.Port,
		Message:      "driver has been disconnected",
		Cause:        adapter.ErrConnectionClosed,
	}
}

// Attach pins one connection of pool as the session's connection. The pool is
// limited to that single connection and owned by the session from now on.
func (s *Session) Attach(ctx context.Context, pool *sql.DB) error {
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)

	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		pool.Close()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	s.pool = pool
	s.conn = conn
	s.closed = false
	return nil
}

// Close releases the cursor and closes the connection. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	hadConn := s.conn != nil
	err := s.closeLocked()
	s.closed = true
	logCtx := s.logCtx
	s.mu.Unlock()

	if hadConn {
		s.log.LogDisconnection(logCtx, err)
	}
	return err
}

// Detach closes the connection without marking the session closed, so the
// variant can attach a new one (used when switching database by reconnecting).
func (s *Session) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	var errs []error
	if s.cursor != nil {
		errs = append(errs, s.cursor.freeLocked())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.pool != nil {
		errs = append(errs, s.pool.Close())
		s.pool = nil
	}
	s.result = nil
	return errors.Join(errs...)
}

// Ping checks the attached connection.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return adapter.ErrConnectionClosed
	}
	return s.conn.PingContext(ctx)
}

// Execute runs one statement on the pinned connection after releasing any
// open cursor. Row producing statements return a live cursor, everything else
// an empty cursor and a stored sql.Result.
func (s *Session) Execute(ctx context.Context, query string) (*Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, s.closedError(s.logCtx)
	}

	if s.cursor != nil {
		s.cursor.freeLocked()
	}

	promoted := s.debugNext
	s.debugNext = false

	start := time.Now()
	var (
		cur *Cursor
		err error
	)
	if ReturnsRows(query) {
		cur, err = s.queryLocked(ctx, query)
	} else {
		cur, err = s.execLocked(ctx, query)
	}
	took := time.Since(start)

	s.queries++
	s.queryTime += took
	s.log.LogStatement(s.logCtx, query, took, err, promoted)

	if err != nil {
		return nil, adapter.NewExecutionError(s.dbType, query, err)
	}
	return cur, nil
}

func (s *Session) queryLocked(ctx context.Context, query string) (*Cursor, error) {
	s.result = nil

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}

	cur := &Cursor{session: s, rows: rows, columns: columns}
	s.cursor = cur
	s.opened++
	return cur, nil
}

func (s *Session) execLocked(ctx context.Context, query string) (*Cursor, error) {
	res, err := s.conn.ExecContext(ctx, query)
	if err != nil {
		s.result = nil
		return nil, err
	}
	s.result = res
	return &Cursor{session: s}, nil
}

// LastInsertID returns the id generated by the last non-row statement, or 0
// when the backend does not report one.
func (s *Session) LastInsertID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return 0
	}
	id, err := s.result.LastInsertId()
	if err != nil {
		return 0
	}
	return id
}

// AffectedRows returns the rows affected by the last non-row statement.
func (s *Session) AffectedRows() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return 0
	}
	n, err := s.result.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// Stats returns activity counters.
func (s *Session) Stats() adapter.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adapter.Stats{
		Queries:         s.queries,
		QueryTime:       s.queryTime,
		OpenCursors:     s.opened - s.released,
		CursorsOpened:   s.opened,
		CursorsReleased: s.released,
	}
}

// DebugNextQuery logs the next executed statement at info level.
func (s *Session) DebugNextQuery() {
	s.mu.Lock()
	s.debugNext = true
	s.mu.Unlock()
}

// QueryValue runs a statement and returns the first column of the first row,
// releasing the cursor before returning.
func (s *Session) QueryValue(ctx context.Context, query string) (interface{}, error) {
	cur, err := s.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cur.Free()

	row, ok, err := cur.Fetch()
	if err != nil {
		return nil, adapter.NewExecutionError(s.dbType, query, err)
	}
	if !ok || row.Len() == 0 {
		return nil, adapter.ErrNoRows
	}
	return row.At(0), nil
}
