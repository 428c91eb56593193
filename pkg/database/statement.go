package database

import (
	"database/sql/driver"
	"reflect"
	"strings"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

// splitTables splits a comma separated table list, dropping empty entries.
func splitTables(tables string) []string {
	var out []string
	for _, t := range strings.Split(tables, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// firstTable returns the table a single row write goes to.
func firstTable(op, tables string) (string, error) {
	list := splitTables(tables)
	if len(list) == 0 {
		return "", adapter.NewValidationError(op, "no table given")
	}
	return list[0], nil
}

// isNull reports whether v is nil, a nil pointer or a Valuer yielding nil.
func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return true
		}
		inner, err := valuer.Value()
		return err == nil && inner == nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	return false
}

func (db *DB) tableName(table string) string {
	return db.QuoteName(db.ReplacePrefix(table))
}

func (db *DB) columnList(fields []Field) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = db.QuoteName(f.Column)
	}
	return strings.Join(cols, ", ")
}

func (db *DB) valueList(fields []Field, nullAsKeyword bool) string {
	vals := make([]string, len(fields))
	for i, f := range fields {
		vals[i] = db.literal(f.Value, nullAsKeyword)
	}
	return "(" + strings.Join(vals, ", ") + ")"
}

func (db *DB) assignments(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = db.QuoteName(f.Column) + " = " + db.literal(f.Value, false)
	}
	return strings.Join(parts, ", ")
}

func (db *DB) buildInsert(verb, table string, rows [][]Field, nullAsKeyword bool) string {
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = db.valueList(r, nullAsKeyword)
	}
	return verb + " INTO " + db.tableName(table) +
		" (" + db.columnList(rows[0]) + ") VALUES " + strings.Join(values, ", ")
}

func (db *DB) buildReplace(table string, fields []Field) string {
	return "REPLACE INTO " + db.tableName(table) + " SET " + db.assignments(fields)
}

func (db *DB) buildUpdate(tables []string, fields []Field, where string) string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = db.tableName(t)
	}
	return "UPDATE " + strings.Join(names, ", ") + " SET " + db.assignments(fields) +
		" WHERE " + db.ReplacePrefix(where)
}

func (db *DB) buildDelete(table, where string) string {
	return "DELETE FROM " + db.tableName(table) + " WHERE " + db.ReplacePrefix(where)
}
