package database

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/reflectx"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// timeLayouts are tried in order when a text column is bound to a time.Time.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// loadObject creates a T from row, binding through ColumnBinder when *T
// implements it and through db tags otherwise, then runs AfterLoad.
func loadObject[T any](row adapter.Row) (*T, error) {
	obj := new(T)
	if b, ok := any(obj).(ColumnBinder); ok {
		if err := b.BindColumns(row); err != nil {
			return obj, fmt.Errorf("bind columns: %w", err)
		}
	} else if err := bindStruct(reflect.ValueOf(obj).Elem(), row); err != nil {
		return obj, err
	}

	if l, ok := any(obj).(AfterLoader); ok {
		if err := l.AfterLoad(); err != nil {
			return obj, fmt.Errorf("after load: %w", err)
		}
	}
	return obj, nil
}

// bindStruct copies row values into the fields of v whose db name matches a
// column. Columns without a matching field are ignored.
func bindStruct(v reflect.Value, row adapter.Row) error {
	if v.Kind() != reflect.Struct {
		return adapter.NewValidationError("bind", "cannot bind columns into %s", v.Type())
	}

	tm := mapper.TypeMap(v.Type())
	for i, col := range row.Columns() {
		fi := tm.GetByPath(col)
		if fi == nil {
			fi = tm.GetByPath(strings.ToLower(col))
		}
		if fi == nil {
			continue
		}
		field := reflectx.FieldByIndexes(v, fi.Index)
		if err := assign(field, row.At(i)); err != nil {
			return fmt.Errorf("bind column %s: %w", col, err)
		}
	}
	return nil
}

// assign converts src, one of the row value types, into dst.
func assign(dst reflect.Value, src interface{}) error {
	if !dst.CanSet() {
		return fmt.Errorf("field of type %s is not settable", dst.Type())
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(toText(src))
		return nil

	case reflect.Bool:
		switch s := src.(type) {
		case int64:
			dst.SetBool(s != 0)
			return nil
		case float64:
			dst.SetBool(s != 0)
			return nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(src)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil

	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(toText(src)))
			return nil
		}

	case reflect.Struct:
		if dst.Type() == timeType {
			if s, ok := src.(string); ok {
				for _, layout := range timeLayouts {
					if t, err := time.Parse(layout, s); err == nil {
						dst.Set(reflect.ValueOf(t))
						return nil
					}
				}
				return fmt.Errorf("cannot parse %q as time", s)
			}
		}
	}

	if sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
}

func toText(src interface{}) string {
	switch s := src.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "1"
		}
		return "0"
	case time.Time:
		return s.Format("2006-01-02 15:04:05.999999")
	}
	return fmt.Sprint(src)
}

func toInt(src interface{}) (int64, error) {
	switch s := src.(type) {
	case int64:
		return s, nil
	case float64:
		if s != float64(int64(s)) {
			return 0, fmt.Errorf("value %v is not an integer", s)
		}
		return int64(s), nil
	case bool:
		if s {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", src)
}

func toFloat(src interface{}) (float64, error) {
	switch s := src.(type) {
	case float64:
		return s, nil
	case int64:
		return float64(s), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to a float", src)
}
