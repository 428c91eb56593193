package database

import (
	"context"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

// SelectRow returns the first row of the result, or ErrNoRows.
func (db *DB) SelectRow(ctx context.Context, query string) (adapter.Row, error) {
	cur, err := db.Query(ctx, query)
	if err != nil {
		return adapter.Row{}, err
	}
	defer cur.Free()

	row, ok, err := cur.Fetch()
	if err != nil {
		return adapter.Row{}, err
	}
	if !ok {
		return adapter.Row{}, adapter.ErrNoRows
	}
	return row, nil
}

// SelectRows returns every row of the result.
func (db *DB) SelectRows(ctx context.Context, query string) ([]adapter.Row, error) {
	cur, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cur.Free()

	return cur.FetchAll()
}

// SelectRowsKeyed returns every row keyed by the value of keyField. Rows
// without that column, or with NULL in it, take the next integer position. A later row with the
// same key replaces the earlier one.
func (db *DB) SelectRowsKeyed(ctx context.Context, query, keyField string) (*Keyed[adapter.Row], error) {
	rows, err := db.SelectRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := NewKeyed[adapter.Row]()
	for _, row := range rows {
		keyRow(out, keyField, row, row)
	}
	return out, nil
}

// SelectValue returns one column of the first row. An empty column name
// selects the first column.
func (db *DB) SelectValue(ctx context.Context, query, column string) (interface{}, error) {
	row, err := db.SelectRow(ctx, query)
	if err != nil {
		return nil, err
	}
	if column == "" {
		if row.Len() == 0 {
			return nil, adapter.ErrNoRows
		}
		return row.At(0), nil
	}
	v, ok := row.Get(column)
	if !ok {
		return nil, adapter.NewValidationError("select value", "column %q is not in the result", column)
	}
	return v, nil
}

// SelectValues collects one column from every row, keyed by keyField when
// given. Rows that lack the column or hold NULL in it are skipped.
func (db *DB) SelectValues(ctx context.Context, query, column, keyField string) (*Keyed[interface{}], error) {
	rows, err := db.SelectRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := NewKeyed[interface{}]()
	for _, row := range rows {
		var (
			v  interface{}
			ok bool
		)
		if column == "" {
			v, ok = row.At(0), row.Len() > 0
		} else {
			v, ok = row.Get(column)
		}
		if !ok || v == nil {
			continue
		}
		keyRow(out, keyField, row, v)
	}
	return out, nil
}

// SelectObject loads the first row into a new T. On failure it still returns
// a usable zero *T alongside the error.
func SelectObject[T any](ctx context.Context, db *DB, query string) (*T, error) {
	row, err := db.SelectRow(ctx, query)
	if err != nil {
		return new(T), err
	}
	return loadObject[T](row)
}

// SelectObjects loads every row into a new T.
func SelectObjects[T any](ctx context.Context, db *DB, query string) ([]*T, error) {
	rows, err := db.SelectRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		obj, err := loadObject[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// SelectObjectsKeyed loads every row into a new T, keyed by keyField.
func SelectObjectsKeyed[T any](ctx context.Context, db *DB, query, keyField string) (*Keyed[*T], error) {
	rows, err := db.SelectRows(ctx, query)
	if err != nil {
		return nil, err
	}

	out := NewKeyed[*T]()
	for _, row := range rows {
		obj, err := loadObject[T](row)
		if err != nil {
			return nil, err
		}
		keyRow(out, keyField, row, obj)
	}
	return out, nil
}

func keyRow[V any](out *Keyed[V], keyField string, row adapter.Row, v V) {
	if keyField != "" {
		if key, ok := row.Get(keyField); ok && key != nil {
			out.Set(key, v)
			return
		}
	}
	out.Append(v)
}
