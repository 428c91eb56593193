package database

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   interface{}
		want interface{}
	}{
		{in: 5, want: int64(5)},
		{in: uint8(7), want: int64(7)},
		{in: "42", want: int64(42)},
		{in: "-3", want: int64(-3)},
		{in: "042", want: "042"},
		{in: "+1", want: "+1"},
		{in: "1.0", want: "1.0"},
		{in: "abc", want: "abc"},
		{in: []byte("9"), want: int64(9)},
		{in: true, want: int64(1)},
		{in: nil, want: ""},
		{in: 3.0, want: int64(3)},
		{in: 2.5, want: "2.5"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKey(tt.in), "key %#v", tt.in)
	}
}

func TestKeyedOrderAndPositions(t *testing.T) {
	k := NewKeyed[string]()
	k.Append("zero")
	k.Set("name", "named")
	k.Set(10, "ten")
	k.Append("eleven")
	k.Set("10", "ten again")

	assert.Equal(t, []interface{}{int64(0), "name", int64(10), int64(11)}, k.Keys())
	assert.Equal(t, []string{"zero", "named", "ten again", "eleven"}, k.Values())
	assert.Equal(t, 4, k.Len())

	v, ok := k.Get(int64(11))
	require.True(t, ok)
	assert.Equal(t, "eleven", v)

	_, ok = k.Get("missing")
	assert.False(t, ok)
}

func TestKeyedNegativeKeysDoNotMovePosition(t *testing.T) {
	k := NewKeyed[int]()
	k.Set(-5, 1)
	k.Append(2)
	assert.Equal(t, []interface{}{int64(-5), int64(0)}, k.Keys())
}

func TestKeyedMaxKeyDoesNotWrapPosition(t *testing.T) {
	k := NewKeyed[string]()
	k.Set(int64(math.MaxInt64), "max")
	k.Append("next")
	assert.Equal(t, []interface{}{int64(math.MaxInt64), int64(0)}, k.Keys())

	v, ok := k.Get(int64(math.MaxInt64))
	require.True(t, ok)
	assert.Equal(t, "max", v)
}

func TestKeyedRangeStops(t *testing.T) {
	k := NewKeyed[int]()
	for i := 0; i < 5; i++ {
		k.Append(i)
	}

	var seen []int
	k.Range(func(_ interface{}, v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestKeyedMarshalJSONKeepsOrder(t *testing.T) {
	k := NewKeyed[interface{}]()
	k.Set("z", 1)
	k.Set(3, "x")
	k.Set("a", nil)

	out, err := json.Marshal(k)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"3":"x","a":null}`, string(out))
}
