package database

import (
	"context"
	"strings"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

// DefaultPrefixMarker is the placeholder replaced by the table prefix.
const DefaultPrefixMarker = "#__"

// DB runs record oriented reads and writes through a borrowed Driver.
// Like the Driver, a DB is meant to be used from one goroutine at a time.
type DB struct {
	driver       adapter.Driver
	log          *logger.Logger
	nullLiterals bool
	prefixMarker string
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for executor messages.
func WithLogger(l *logger.Logger) Option {
	return func(db *DB) {
		db.log = l
	}
}

// WithNullLiterals renders nil values as NULL in every write, instead of only
// in ReplaceMany.
func WithNullLiterals(enabled bool) Option {
	return func(db *DB) {
		db.nullLiterals = enabled
	}
}

// WithPrefixMarker changes the placeholder that ReplacePrefix substitutes.
func WithPrefixMarker(marker string) Option {
	return func(db *DB) {
		db.prefixMarker = marker
	}
}

// New wraps driver. The DB does not own the driver; closing it stays with the
// caller.
func New(driver adapter.Driver, opts ...Option) *DB {
	db := &DB{
		driver:       driver,
		prefixMarker: DefaultPrefixMarker,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Driver returns the underlying driver.
func (db *DB) Driver() adapter.Driver { return db.driver }

// Escape renders value through the driver's escaping.
func (db *DB) Escape(value interface{}, extra bool) string {
	return db.driver.Escape(value, extra)
}

// Quote renders value as a quoted literal.
func (db *DB) Quote(value interface{}) string {
	return "'" + db.driver.Escape(value, false) + "'"
}

// QuoteName quotes a possibly dotted identifier, one segment at a time.
func (db *DB) QuoteName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = db.driver.QuoteName(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}

// Table returns name with the configured table prefix.
func (db *DB) Table(name string) string {
	return db.driver.Config().TablePrefix + name
}

// ReplacePrefix substitutes the prefix marker with the configured table
// prefix. Markers inside quoted string literals are left alone.
func (db *DB) ReplacePrefix(query string) string {
	if db.prefixMarker == "" || !strings.Contains(query, db.prefixMarker) {
		return query
	}
	mysqlStyle := dbcapabilities.IsMySQLFamily(db.driver.Type())
	return replaceOutsideLiterals(query, db.prefixMarker, db.driver.Config().TablePrefix, mysqlStyle)
}

// replaceOutsideLiterals replaces marker outside '...' literals. In MySQL
// style "..." is a literal too and a backslash escapes the next character
// inside a literal; elsewhere double quotes delimit identifiers.
func replaceOutsideLiterals(query, marker, replacement string, mysqlStyle bool) string {
	var b strings.Builder
	b.Grow(len(query))

	var quote byte
	for i := 0; i < len(query); {
		c := query[i]
		if quote != 0 {
			b.WriteByte(c)
			i++
			switch {
			case c == '\\' && mysqlStyle && i < len(query):
				b.WriteByte(query[i])
				i++
			case c == quote && i < len(query) && query[i] == quote:
				b.WriteByte(query[i])
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		if c == '\'' || (c == '"' && mysqlStyle) {
			quote = c
			b.WriteByte(c)
			i++
			continue
		}
		if strings.HasPrefix(query[i:], marker) {
			b.WriteString(replacement)
			i += len(marker)
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// Query executes a statement after prefix substitution and returns its
// cursor. The caller frees the cursor.
func (db *DB) Query(ctx context.Context, query string) (adapter.Cursor, error) {
	return db.driver.Execute(ctx, db.ReplacePrefix(query))
}

// Exec executes a statement that produces no rows and reports its outcome.
func (db *DB) Exec(ctx context.Context, query string) (Result, error) {
	cur, err := db.Query(ctx, query)
	if err != nil {
		return Result{}, err
	}
	defer cur.Free()
	return db.result(), nil
}

func (db *DB) result() Result {
	return Result{
		InsertID:     db.driver.LastInsertID(),
		RowsAffected: db.driver.AffectedRows(),
		ok:           true,
	}
}

// Version returns the server version.
func (db *DB) Version(ctx context.Context) (string, error) {
	return db.driver.Version(ctx)
}

// LastInsertID returns the id generated by the last write.
func (db *DB) LastInsertID() int64 { return db.driver.LastInsertID() }

// LockTable takes a write lock on table when the driver supports it.
func (db *DB) LockTable(ctx context.Context, table string) error {
	locker, ok := db.driver.(adapter.TableLocker)
	if !ok {
		return adapter.NewUnsupportedOperationError(db.driver.Type(), "table locking", "")
	}
	return locker.LockTable(ctx, db.ReplacePrefix(table))
}

// UnlockTables releases all table locks held by the connection.
func (db *DB) UnlockTables(ctx context.Context) error {
	locker, ok := db.driver.(adapter.TableLocker)
	if !ok {
		return adapter.NewUnsupportedOperationError(db.driver.Type(), "table locking", "")
	}
	return locker.UnlockTables(ctx)
}

// Stats returns the driver's activity counters, or zero values when the
// driver keeps none.
func (db *DB) Stats() adapter.Stats {
	if sp, ok := db.driver.(adapter.StatsProvider); ok {
		return sp.Stats()
	}
	return adapter.Stats{}
}

// DebugNextQuery asks the driver to log the next statement at info level.
func (db *DB) DebugNextQuery() {
	if d, ok := db.driver.(adapter.Debugger); ok {
		d.DebugNextQuery()
		return
	}
	db.log.Debug("driver %s does not support statement debugging", db.driver.Type())
}

// literal renders one value for a write statement.
func (db *DB) literal(v interface{}, nullAsKeyword bool) string {
	if (nullAsKeyword || db.nullLiterals) && isNull(v) {
		return "NULL"
	}
	return "'" + db.driver.Escape(v, false) + "'"
}
