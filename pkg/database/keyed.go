package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Keyed is an insertion ordered map of read results. Integer keys and
// strings holding canonical integers share one key space, so "5" and 5
// address the same entry.
type Keyed[V any] struct {
	keys    []interface{}
	values  map[interface{}]V
	nextPos int64
}

// NewKeyed returns an empty Keyed.
func NewKeyed[V any]() *Keyed[V] {
	return &Keyed[V]{values: make(map[interface{}]V)}
}

// Set stores v under key. Replacing an existing key keeps its position.
func (k *Keyed[V]) Set(key interface{}, v V) {
	nk := normalizeKey(key)
	if _, exists := k.values[nk]; !exists {
		k.keys = append(k.keys, nk)
	}
	k.values[nk] = v
	if n, ok := nk.(int64); ok && n >= k.nextPos && n < math.MaxInt64 {
		k.nextPos = n + 1
	}
}

// Append stores v at the next integer position: one past the largest integer
// key so far, or 0.
func (k *Keyed[V]) Append(v V) {
	k.Set(k.nextPos, v)
}

// Get returns the value stored under key.
func (k *Keyed[V]) Get(key interface{}) (V, bool) {
	v, ok := k.values[normalizeKey(key)]
	return v, ok
}

// Len returns the number of entries.
func (k *Keyed[V]) Len() int { return len(k.keys) }

// Keys returns the keys in insertion order. Keys are int64 or string.
func (k *Keyed[V]) Keys() []interface{} {
	return append([]interface{}(nil), k.keys...)
}

// Values returns the values in insertion order.
func (k *Keyed[V]) Values() []V {
	out := make([]V, len(k.keys))
	for i, key := range k.keys {
		out[i] = k.values[key]
	}
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (k *Keyed[V]) Range(fn func(key interface{}, v V) bool) {
	for _, key := range k.keys {
		if !fn(key, k.values[key]) {
			return
		}
	}
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (k *Keyed[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range k.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(fmt.Sprint(key))
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(k.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// normalizeKey maps a row value to a map key: integers and canonical integer
// strings become int64, booleans 1 or 0, nil the empty string, everything else
// its text form.
func normalizeKey(key interface{}) interface{} {
	switch k := key.(type) {
	case nil:
		return ""
	case int:
		return int64(k)
	case int8:
		return int64(k)
	case int16:
		return int64(k)
	case int32:
		return int64(k)
	case int64:
		return k
	case uint:
		return int64(k)
	case uint8:
		return int64(k)
	case uint16:
		return int64(k)
	case uint32:
		return int64(k)
	case uint64:
		return int64(k)
	case bool:
		if k {
			return int64(1)
		}
		return int64(0)
	case string:
		return stringKey(k)
	case []byte:
		return stringKey(string(k))
	case float64:
		if k == float64(int64(k)) {
			return int64(k)
		}
		return strconv.FormatFloat(k, 'f', -1, 64)
	case time.Time:
		return k.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(key)
}

// stringKey converts canonical decimal integers such as "42" or "-7" to
// int64. "042", "+1" and "1.0" stay strings.
func stringKey(s string) interface{} {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return s
	}
	return n
}
