package common

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the literal format used for time values in statements.
const TimeLayout = "2006-01-02 15:04:05.999999"

// FormatScalar renders v as statement text. numeric reports whether the text
// is a bare number (integers, floats and booleans) that needs no escaping.
// Floats are formatted independently of any locale.
func FormatScalar(v interface{}) (text string, numeric bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case int:
		return strconv.FormatInt(int64(x), 10), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return formatFloat(float64(x), 32), true
	case float64:
		return formatFloat(x, 64), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case string:
		return x, false
	case []byte:
		return string(x), false
	case time.Time:
		return x.Format(TimeLayout), false
	case sql.RawBytes:
		return string(x), false
	case driver.Valuer:
		val, err := x.Value()
		if err != nil {
			return "", false
		}
		return FormatScalar(val)
	case fmt.Stringer:
		return x.String(), false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", false
		}
		return FormatScalar(rv.Elem().Interface())
	}
	return fmt.Sprint(v), false
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'f', -1, bits)
	return strings.Replace(s, ",", ".", 1)
}

// EscapeLike escapes the LIKE wildcards % and _ with a backslash.
func EscapeLike(s string) string {
	if !strings.ContainsAny(s, "%_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r == '%' || r == '_' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DoubleQuotes escapes a literal by doubling single quotes, the standard SQL
// rule used by backends without backslash escapes.
func DoubleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteWith wraps name in open/close characters, doubling any close
// character inside it.
func QuoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// DriverAvailable reports whether a database/sql driver is registered.
func DriverAvailable(name string) bool {
	for _, d := range sql.Drivers() {
		if d == name {
			return true
		}
	}
	return false
}
