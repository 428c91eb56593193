package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/adapter/adaptertest"
)

type user struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Email    string
	Tags     []string
	internal string
	saved    int
	cleaned  bool
}

func (u *user) AfterSave() error {
	u.saved++
	return nil
}

func (u *user) Cleanup() error {
	u.cleaned = true
	return nil
}

type prepared struct {
	Title  string `db:"title"`
	before bool
	clean  bool
}

func (p *prepared) BeforeSave() error {
	p.before = true
	p.Title = "prepared " + p.Title
	return nil
}

func (p *prepared) Cleanup() error {
	p.clean = true
	return nil
}

func newTestDB(opts ...Option) (*DB, *adaptertest.Driver) {
	drv := adaptertest.New(adapter.Config{TablePrefix: "jos_"})
	return New(drv, opts...), drv
}

func TestInsert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		tables string
		record interface{}
		want   string
	}{
		{
			name:   "map keys are sorted",
			tables: "users",
			record: map[string]interface{}{"name": "O'Brien", "age": 5},
			want:   "INSERT INTO `users` (`age`, `name`) VALUES ('5', 'O\\'Brien')",
		},
		{
			name:   "first table of a list",
			tables: "users, logs",
			record: map[string]interface{}{"id": 1},
			want:   "INSERT INTO `users` (`id`) VALUES ('1')",
		},
		{
			name:   "nil renders an empty literal",
			tables: "users",
			record: map[string]interface{}{"note": nil},
			want:   "INSERT INTO `users` (`note`) VALUES ('')",
		},
		{
			name:   "struct fields in declaration order",
			tables: "users",
			record: &user{ID: 7, Name: "ann", Email: "a@x", Tags: []string{"x"}},
			want:   "INSERT INTO `users` (`id`, `name`, `email`) VALUES ('7', 'ann', 'a@x')",
		},
		{
			name:   "dotted and prefixed table",
			tables: "shop.#__orders",
			record: map[string]interface{}{"total": 1.5},
			want:   "INSERT INTO `shop`.`jos_orders` (`total`) VALUES ('1.5')",
		},
		{
			name:   "row input",
			tables: "users",
			record: adapter.NewRow([]string{"b", "a"}, []interface{}{true, "x"}),
			want:   "INSERT INTO `users` (`b`, `a`) VALUES ('1', 'x')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, drv := newTestDB()
			drv.Queue(adaptertest.Response{InsertID: 42, Affected: 1})

			res, err := db.Insert(ctx, tt.tables, tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, drv.LastQuery())
			assert.True(t, res.OK())
			assert.Equal(t, int64(42), res.InsertID)
			assert.Equal(t, int64(42), res.Value())
		})
	}
}

func TestInsertHooks(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()

	u := &user{Name: "bob"}
	_, err := db.Insert(ctx, "users", u)
	require.NoError(t, err)
	assert.True(t, u.cleaned)
	assert.Equal(t, 1, u.saved)

	p := &prepared{Title: "x"}
	_, err = db.Insert(ctx, "posts", p)
	require.NoError(t, err)
	assert.True(t, p.before)
	assert.False(t, p.clean, "only the first hook found runs")
	assert.Equal(t, "INSERT INTO `posts` (`title`) VALUES ('prepared x')", drv.LastQuery())
}

func TestInsertFailureSkipsAfterSave(t *testing.T) {
	db, drv := newTestDB()
	drv.Queue(adaptertest.Response{Err: errors.New("duplicate entry")})

	u := &user{Name: "bob"}
	res, err := db.Insert(context.Background(), "users", u)
	require.Error(t, err)
	assert.True(t, adapter.IsExecutionError(err))
	assert.False(t, res.OK())
	assert.Equal(t, 0, u.saved)
}

func TestWriteValidation(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()

	cases := map[string]func() error{
		"insert without table": func() error {
			_, err := db.Insert(ctx, " , ", map[string]interface{}{"a": 1})
			return err
		},
		"insert without columns": func() error {
			_, err := db.Insert(ctx, "t", map[string]interface{}{"tags": []string{"x"}})
			return err
		},
		"unsupported record": func() error {
			_, err := db.Insert(ctx, "t", 42)
			return err
		},
		"update without where": func() error {
			_, err := db.Update(ctx, "t", map[string]interface{}{"a": 1}, "  ")
			return err
		},
		"delete without where": func() error {
			_, err := db.Delete(ctx, "t", "")
			return err
		},
		"insert many not a slice": func() error {
			_, err := db.InsertMany(ctx, "t", map[string]interface{}{"a": 1})
			return err
		},
		"insert many empty": func() error {
			_, err := db.InsertMany(ctx, "t", []interface{}{})
			return err
		},
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			err := fn()
			require.Error(t, err)
			assert.True(t, adapter.IsValidationError(err), "got %v", err)
		})
	}
	assert.Empty(t, drv.Executed(), "validation failures never reach the driver")
}

func TestInsertMany(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()
	drv.Queue(adaptertest.Response{Affected: 2})

	users := []user{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	res, err := db.InsertMany(ctx, "users", users)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
	assert.Equal(t,
		"INSERT INTO `users` (`id`, `name`, `email`) VALUES ('1', 'a', ''), ('2', 'b', '')",
		drv.LastQuery())
	assert.Equal(t, 1, users[0].saved)
	assert.Equal(t, 1, users[1].saved)
}

func TestInsertManySkipsEmptyRecords(t *testing.T) {
	db, drv := newTestDB()

	rows := []map[string]interface{}{
		{"a": 1, "b": nil},
		{},
		{"b": "y", "a": 2},
	}
	_, err := db.InsertMany(context.Background(), "t", rows)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `t` (`a`, `b`) VALUES ('1', ''), ('2', 'y')", drv.LastQuery())
}

func TestInsertManyRejectsMixedColumns(t *testing.T) {
	db, drv := newTestDB()

	rows := []interface{}{
		map[string]interface{}{"a": 1},
		map[string]interface{}{"a": 2, "b": 3},
	}
	_, err := db.InsertMany(context.Background(), "t", rows)
	require.Error(t, err)
	assert.True(t, adapter.IsValidationError(err))
	assert.Empty(t, drv.Executed())
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()

	_, err := db.Replace(ctx, "settings, other", map[string]interface{}{"k": "theme", "v": nil})
	require.NoError(t, err)
	assert.Equal(t, "REPLACE INTO `settings` SET `k` = 'theme', `v` = ''", drv.LastQuery())

	_, err = db.ReplaceMany(ctx, "settings", []map[string]interface{}{
		{"k": "a", "v": nil},
		{"k": "b", "v": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "REPLACE INTO `settings` (`k`, `v`) VALUES ('a', NULL), ('b', '2')", drv.LastQuery())
}

func TestNullLiterals(t *testing.T) {
	db, drv := newTestDB(WithNullLiterals(true))

	var missing *string
	_, err := db.Insert(context.Background(), "t", map[string]interface{}{"a": nil, "b": missing})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `t` (`a`, `b`) VALUES (NULL, NULL)", drv.LastQuery())
}

func TestUpdate(t *testing.T) {
	db, drv := newTestDB()
	drv.Queue(adaptertest.Response{Affected: 3})

	res, err := db.Update(context.Background(), "users, #__profiles",
		map[string]interface{}{"active": false}, "users.id = #__profiles.user_id AND note = '#__x'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RowsAffected)
	assert.Equal(t, true, res.Value())
	assert.Equal(t,
		"UPDATE `users`, `jos_profiles` SET `active` = '0' WHERE users.id = jos_profiles.user_id AND note = '#__x'",
		drv.LastQuery())
}

func TestDeleteSumsAffectedRows(t *testing.T) {
	db, drv := newTestDB()
	drv.Queue(adaptertest.Response{Affected: 2}, adaptertest.Response{Affected: 5})

	res, err := db.Delete(context.Background(), "a, b", "id > 1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.RowsAffected)
	assert.Equal(t, []string{
		"DELETE FROM `a` WHERE id > 1",
		"DELETE FROM `b` WHERE id > 1",
	}, drv.Executed())
}

func TestDeleteContinuesPastFailingTable(t *testing.T) {
	db, drv := newTestDB()
	drv.Queue(
		adaptertest.Response{Affected: 2},
		adaptertest.Response{Err: errors.New("locked")},
		adaptertest.Response{Affected: 3},
	)

	res, err := db.Delete(context.Background(), "a, b, c", "1 = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.False(t, res.OK())
	assert.Equal(t, int64(5), res.RowsAffected)
	assert.Equal(t, []string{
		"DELETE FROM `a` WHERE 1 = 1",
		"DELETE FROM `b` WHERE 1 = 1",
		"DELETE FROM `c` WHERE 1 = 1",
	}, drv.Executed())
}

func TestWriteAfterDisconnect(t *testing.T) {
	db, drv := newTestDB()
	require.NoError(t, drv.Disconnect())

	_, err := db.Insert(context.Background(), "t", map[string]interface{}{"a": 1})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.ErrorIs(t, err, adapter.ErrConnectionClosed)
}

func TestNullRenderingAsymmetry(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()
	rows := []map[string]interface{}{{"a": "x", "b": nil}}

	_, err := db.InsertMany(ctx, "t", rows)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `t` (`a`, `b`) VALUES ('x', '')", drv.LastQuery())

	_, err = db.ReplaceMany(ctx, "t", rows)
	require.NoError(t, err)
	assert.Equal(t, "REPLACE INTO `t` (`a`, `b`) VALUES ('x', NULL)", drv.LastQuery())
}
