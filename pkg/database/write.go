package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

// Insert writes one record into the first table of tables.
func (db *DB) Insert(ctx context.Context, tables string, record interface{}) (Result, error) {
	return db.writeOne(ctx, "insert", tables, record, func(table string, fields []Field) string {
		return db.buildInsert("INSERT", table, [][]Field{fields}, false)
	})
}

// Replace writes one record with REPLACE INTO ... SET.
func (db *DB) Replace(ctx context.Context, tables string, record interface{}) (Result, error) {
	return db.writeOne(ctx, "replace", tables, record, db.buildReplace)
}

// InsertMany writes all records in one multi-row INSERT. records is a slice
// of record-like values that must all flatten to the same columns.
func (db *DB) InsertMany(ctx context.Context, tables string, records interface{}) (Result, error) {
	return db.writeMany(ctx, "insert", "INSERT", tables, records, false)
}

// ReplaceMany writes all records in one multi-row REPLACE. nil values are
// written as NULL.
func (db *DB) ReplaceMany(ctx context.Context, tables string, records interface{}) (Result, error) {
	return db.writeMany(ctx, "replace", "REPLACE", tables, records, true)
}

// Update sets the record's columns on every row matching where. The where
// clause is used verbatim and must not be empty.
func (db *DB) Update(ctx context.Context, tables string, record interface{}, where string) (Result, error) {
	list := splitTables(tables)
	if len(list) == 0 {
		return Result{}, adapter.NewValidationError("update", "no table given")
	}
	if strings.TrimSpace(where) == "" {
		return Result{}, adapter.NewValidationError("update", "refusing to update %s without a where clause", tables)
	}

	fields, err := db.prepare("update", record)
	if err != nil {
		return Result{}, err
	}

	res, err := db.run(ctx, db.buildUpdate(list, fields, where))
	if err != nil {
		return Result{}, err
	}
	return res, afterSave("update", record)
}

// Delete removes the rows matching where from each listed table, one
// statement per table, and returns the summed affected rows. A failing table
// does not stop the others; its error is joined into the returned error and
// the sum covers the tables that succeeded.
func (db *DB) Delete(ctx context.Context, tables string, where string) (Result, error) {
	list := splitTables(tables)
	if len(list) == 0 {
		return Result{}, adapter.NewValidationError("delete", "no table given")
	}
	if strings.TrimSpace(where) == "" {
		return Result{}, adapter.NewValidationError("delete", "refusing to delete from %s without a where clause", tables)
	}

	var (
		total Result
		errs  []error
	)
	for _, table := range list {
		res, err := db.run(ctx, db.buildDelete(table, where))
		if err != nil {
			db.log.Warn("delete from %s failed: %v", table, err)
			errs = append(errs, err)
			continue
		}
		total.RowsAffected += res.RowsAffected
	}
	total.ok = len(errs) == 0
	return total, errors.Join(errs...)
}

type buildFunc func(table string, fields []Field) string

func (db *DB) writeOne(ctx context.Context, op, tables string, record interface{}, build buildFunc) (Result, error) {
	table, err := firstTable(op, tables)
	if err != nil {
		return Result{}, err
	}
	fields, err := db.prepare(op, record)
	if err != nil {
		return Result{}, err
	}

	res, err := db.run(ctx, build(table, fields))
	if err != nil {
		return Result{}, err
	}
	return res, afterSave(op, record)
}

func (db *DB) writeMany(ctx context.Context, op, verb, tables string, records interface{}, nullAsKeyword bool) (Result, error) {
	table, err := firstTable(op, tables)
	if err != nil {
		return Result{}, err
	}
	items, err := recordsOf(op, records)
	if err != nil {
		return Result{}, err
	}

	var (
		rows    [][]Field
		columns []string
	)
	for i, item := range items {
		if err := prepareRecord(item); err != nil {
			return Result{}, fmt.Errorf("%s: prepare record %d: %w", op, i, err)
		}
		fields, err := flatten(item)
		if err != nil {
			return Result{}, err
		}
		if len(fields) == 0 {
			db.log.Debug("%s into %s: skipping record %d without columns", op, table, i)
			continue
		}
		cols := columnsOf(fields)
		if columns == nil {
			columns = cols
		} else if !equalColumns(columns, cols) {
			return Result{}, adapter.NewValidationError(op, "record %d has columns %v, expected %v", i, cols, columns)
		}
		rows = append(rows, fields)
	}
	if len(rows) == 0 {
		return Result{}, adapter.NewValidationError(op, "no records with columns to write into %s", table)
	}

	res, err := db.run(ctx, db.buildInsert(verb, table, rows, nullAsKeyword))
	if err != nil {
		return Result{}, err
	}
	for _, item := range items {
		if err := afterSave(op, item); err != nil {
			return res, err
		}
	}
	return res, nil
}

// prepare runs the pre-write hook and flattens the record.
func (db *DB) prepare(op string, record interface{}) ([]Field, error) {
	if err := prepareRecord(record); err != nil {
		return nil, fmt.Errorf("%s: prepare record: %w", op, err)
	}
	fields, err := flatten(record)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, adapter.NewValidationError(op, "record has no columns to write")
	}
	return fields, nil
}

// run executes a built statement and collects its outcome. Built statements
// already carry the prefixed table names.
func (db *DB) run(ctx context.Context, query string) (Result, error) {
	cur, err := db.driver.Execute(ctx, query)
	if err != nil {
		db.log.Debug("statement failed: %v", err)
		return Result{}, err
	}
	defer cur.Free()
	return db.result(), nil
}

func afterSave(op string, record interface{}) error {
	if s, ok := record.(AfterSaver); ok {
		if err := s.AfterSave(); err != nil {
			return fmt.Errorf("%s: after save: %w", op, err)
		}
	}
	return nil
}

// recordsOf expands a slice or array of records. Addressable struct elements
// are passed by pointer so pointer receiver hooks run.
func recordsOf(op string, records interface{}) ([]interface{}, error) {
	if items, ok := records.([]interface{}); ok {
		return items, nil
	}
	if rows, ok := records.([]adapter.Row); ok {
		items := make([]interface{}, len(rows))
		for i, r := range rows {
			items[i] = r
		}
		return items, nil
	}

	rv := reflect.ValueOf(records)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, adapter.NewValidationError(op, "expected a slice of records, got %T", records)
	}

	items := make([]interface{}, rv.Len())
	for i := range items {
		el := rv.Index(i)
		if el.Kind() == reflect.Struct && el.CanAddr() {
			el = el.Addr()
		}
		items[i] = el.Interface()
	}
	return items, nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
