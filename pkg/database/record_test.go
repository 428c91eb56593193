package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Timestamps struct {
	Created time.Time `db:"created_at"`
	Updated time.Time `db:"updated_at"`
}

type address struct {
	City string `db:"city"`
}

type customer struct {
	ID int64 `db:"id"`
	Timestamps
	*Extra
	Nickname sql.NullString `db:"nickname"`
	Home     address        `db:"home"`
	Skip     string         `db:"-"`
}

type Extra struct {
	Level int `db:"level"`
}

type document struct {
	ID   int64       `db:"id"`
	Meta interface{} `db:"meta"`
	Note interface{} `db:"note"`
}

type manual struct{}

func (manual) DBFields() []Field {
	return []Field{{Column: "a", Value: 1}, {Column: "b", Value: []int{1}}}
}

func TestFlattenStruct(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := customer{
		ID:         1,
		Timestamps: Timestamps{Created: now, Updated: now},
		Nickname:   sql.NullString{String: "cc", Valid: true},
		Home:       address{City: "Oslo"},
		Skip:       "x",
	}

	fields, err := flatten(&c)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "nickname", "created_at", "updated_at"}, columnsOf(fields))
	assert.Equal(t, now, fields[2].Value)
}

func TestFlattenStructEmbeddedPointer(t *testing.T) {
	c := customer{ID: 1, Extra: &Extra{Level: 3}}

	fields, err := flatten(c)
	require.NoError(t, err)
	assert.Contains(t, columnsOf(fields), "level")
}

func TestFlattenFielder(t *testing.T) {
	fields, err := flatten(manual{})
	require.NoError(t, err)
	assert.Equal(t, []Field{{Column: "a", Value: 1}}, fields)
}

func TestFlattenNil(t *testing.T) {
	var c *customer
	fields, err := flatten(c)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestFlattenTypedMap(t *testing.T) {
	fields, err := flatten(map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	assert.Equal(t, []Field{{Column: "a", Value: "1"}, {Column: "b", Value: "2"}}, fields)

	_, err = flatten(map[int]string{1: "x"})
	assert.Error(t, err)
}

func TestIsNull(t *testing.T) {
	var p *int
	one := 1

	assert.True(t, isNull(nil))
	assert.True(t, isNull(p))
	assert.True(t, isNull(sql.NullString{}))
	assert.False(t, isNull(sql.NullString{String: "", Valid: true}))
	assert.False(t, isNull(&one))
	assert.False(t, isNull(""))
}

func TestFlattenInterfaceFieldsByDynamicValue(t *testing.T) {
	tests := []struct {
		name    string
		doc     document
		columns []string
	}{
		{"scalars", document{ID: 1, Meta: "m", Note: int64(2)}, []string{"id", "meta", "note"}},
		{"nil", document{ID: 1}, []string{"id", "meta", "note"}},
		{"map", document{ID: 1, Meta: map[string]int{"x": 1}, Note: "n"}, []string{"id", "note"}},
		{"slice", document{ID: 1, Meta: []string{"a"}, Note: []int{1}}, []string{"id"}},
		{"bytes", document{ID: 1, Meta: []byte("raw")}, []string{"id", "meta", "note"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := flatten(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.columns, columnsOf(fields))
		})
	}
}

func TestInsertSkipsContainerInInterfaceField(t *testing.T) {
	db, drv := newTestDB()

	_, err := db.Insert(context.Background(), "t", document{ID: 1, Meta: map[string]int{"x": 1}, Note: "n"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `t` (`id`, `note`) VALUES ('1', 'n')", drv.LastQuery())
}
