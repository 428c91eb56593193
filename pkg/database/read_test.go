package database

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/adapter/adaptertest"
)

type article struct {
	ID      int64     `db:"id"`
	Title   string    `db:"title"`
	Score   float64   `db:"score"`
	Draft   bool      `db:"draft"`
	Created time.Time `db:"created"`
	Author  *string   `db:"author"`
	loaded  bool
}

func (a *article) AfterLoad() error {
	a.loaded = true
	return nil
}

type tagged struct {
	Label string
}

func (t *tagged) BindColumns(row adapter.Row) error {
	t.Label = strings.ToUpper(row.Value("name").(string))
	return nil
}

func queueUsers(drv *adaptertest.Driver) {
	drv.QueueRows([]string{"id", "name"},
		[]interface{}{int64(1), "a"},
		[]interface{}{int64(2), "b"},
		[]interface{}{int64(3), "c"},
	)
}

func TestSelectRow(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()
	queueUsers(drv)

	row, err := db.SelectRow(ctx, "SELECT * FROM #__users")
	require.NoError(t, err)
	assert.Equal(t, "a", row.Value("name"))
	assert.Equal(t, "SELECT * FROM jos_users", drv.LastQuery())
	assert.Zero(t, drv.OpenCursors())

	drv.QueueRows([]string{"id"})
	_, err = db.SelectRow(ctx, "SELECT id FROM users WHERE 0")
	assert.ErrorIs(t, err, adapter.ErrNoRows)
	assert.Zero(t, drv.OpenCursors())
}

func TestSelectRows(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	rows, err := db.SelectRows(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(3), rows[2].Value("id"))
	assert.Zero(t, drv.OpenCursors())
}

func TestSelectRowsKeyed(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	keyed, err := db.SelectRowsKeyed(context.Background(), "SELECT id, name FROM users", "name")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b", "c"}, keyed.Keys())

	row, ok := keyed.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), row.Value("id"))
}

func TestSelectRowsKeyedMissingKeyAppends(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	keyed, err := db.SelectRowsKeyed(context.Background(), "SELECT id, name FROM users", "missing")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(0), int64(1), int64(2)}, keyed.Keys())
}

func TestSelectRowsKeyedNullKeyAppends(t *testing.T) {
	db, drv := newTestDB()
	drv.QueueRows([]string{"id", "name"},
		[]interface{}{int64(1), "a"},
		[]interface{}{nil, "b"},
		[]interface{}{nil, "c"},
	)

	keyed, err := db.SelectRowsKeyed(context.Background(), "SELECT id, name FROM users", "id")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, keyed.Keys())

	names := make([]interface{}, 0, keyed.Len())
	for _, row := range keyed.Values() {
		names = append(names, row.Value("name"))
	}
	assert.Equal(t, []interface{}{"a", "b", "c"}, names)
}

func TestSelectObjectsKeyedNullKeyAppends(t *testing.T) {
	db, drv := newTestDB()
	drv.QueueRows([]string{"id", "title"},
		[]interface{}{nil, "first"},
		[]interface{}{nil, "second"},
	)

	keyed, err := SelectObjectsKeyed[article](context.Background(), db, "SELECT id, title FROM articles", "id")
	require.NoError(t, err)
	require.Equal(t, 2, keyed.Len())
	assert.Equal(t, []interface{}{int64(0), int64(1)}, keyed.Keys())
}

func TestSelectValue(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()

	queueUsers(drv)
	v, err := db.SelectValue(ctx, "SELECT id, name FROM users", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	queueUsers(drv)
	v, err = db.SelectValue(ctx, "SELECT id, name FROM users", "name")
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	queueUsers(drv)
	_, err = db.SelectValue(ctx, "SELECT id, name FROM users", "email")
	assert.True(t, adapter.IsValidationError(err))

	drv.QueueRows([]string{"n"})
	_, err = db.SelectValue(ctx, "SELECT n FROM t WHERE 0", "")
	assert.ErrorIs(t, err, adapter.ErrNoRows)
	assert.Zero(t, drv.OpenCursors())
}

func TestSelectValues(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	values, err := db.SelectValues(context.Background(), "SELECT id, name FROM users", "name", "id")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, values.Keys())
	assert.Equal(t, []interface{}{"a", "b", "c"}, values.Values())

	out, err := json.Marshal(values)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"a","2":"b","3":"c"}`, string(out))
}

func TestSelectValuesSkipsRowsWithoutColumn(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	values, err := db.SelectValues(context.Background(), "SELECT id, name FROM users", "email", "")
	require.NoError(t, err)
	assert.Zero(t, values.Len())
}

func TestSelectObject(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()
	drv.QueueRows(
		[]string{"id", "title", "score", "draft", "created", "author", "unknown"},
		[]interface{}{"12", "Hello", int64(4), int64(1), "2024-03-01 10:20:30", "ann", "x"},
	)

	a, err := SelectObject[article](ctx, db, "SELECT * FROM articles")
	require.NoError(t, err)
	assert.Equal(t, int64(12), a.ID)
	assert.Equal(t, "Hello", a.Title)
	assert.Equal(t, 4.0, a.Score)
	assert.True(t, a.Draft)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), a.Created)
	require.NotNil(t, a.Author)
	assert.Equal(t, "ann", *a.Author)
	assert.True(t, a.loaded)
	assert.Zero(t, drv.OpenCursors())
}

func TestSelectObjectFailureReturnsZeroObject(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()

	drv.QueueRows([]string{"id"})
	a, err := SelectObject[article](ctx, db, "SELECT id FROM articles WHERE 0")
	assert.ErrorIs(t, err, adapter.ErrNoRows)
	require.NotNil(t, a)
	assert.Equal(t, article{}, *a)

	drv.Queue(adaptertest.Response{Err: errors.New("no such table")})
	a, err = SelectObject[article](ctx, db, "SELECT * FROM missing")
	assert.True(t, adapter.IsExecutionError(err))
	require.NotNil(t, a)

	drv.QueueRows([]string{"id"}, []interface{}{"twelve"})
	_, err = SelectObject[article](ctx, db, "SELECT id FROM articles")
	assert.Error(t, err)
}

func TestSelectObjectsWithBinder(t *testing.T) {
	db, drv := newTestDB()
	queueUsers(drv)

	objs, err := SelectObjects[tagged](context.Background(), db, "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, "A", objs[0].Label)
	assert.Equal(t, "C", objs[2].Label)
}

func TestSelectObjectsKeyed(t *testing.T) {
	db, drv := newTestDB()
	drv.QueueRows([]string{"id", "title"},
		[]interface{}{int64(5), "five"},
		[]interface{}{int64(9), "nine"},
	)

	keyed, err := SelectObjectsKeyed[article](context.Background(), db, "SELECT id, title FROM articles", "id")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(5), int64(9)}, keyed.Keys())

	a, ok := keyed.Get("9")
	require.True(t, ok)
	assert.Equal(t, "nine", a.Title)
	assert.True(t, a.loaded)
}

func TestQueryCursorIsReleasedByNextStatement(t *testing.T) {
	ctx := context.Background()
	db, drv := newTestDB()
	queueUsers(drv)

	cur, err := db.Query(ctx, "SELECT id, name FROM users")
	require.NoError(t, err)
	assert.Equal(t, 1, drv.OpenCursors())

	_, err = db.Exec(ctx, "UPDATE users SET name = 'x'")
	require.NoError(t, err)
	assert.Zero(t, drv.OpenCursors())

	_, _, err = cur.Fetch()
	assert.ErrorIs(t, err, adapter.ErrCursorClosed)
}

func TestSelectValuesSkipsNullValues(t *testing.T) {
	db, drv := newTestDB()
	drv.QueueRows([]string{"id", "name"},
		[]interface{}{int64(1), nil},
		[]interface{}{int64(2), "b"},
	)

	values, err := db.SelectValues(context.Background(), "SELECT id, name FROM users", "name", "id")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2)}, values.Keys())
	assert.Equal(t, []interface{}{"b"}, values.Values())
}
