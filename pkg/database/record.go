package database

import (
	"database/sql/driver"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/reflectx"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
)

// BeforeSaver is implemented by records that prepare themselves before a write.
type BeforeSaver interface {
	BeforeSave() error
}

// Cleaner is implemented by records that normalize their fields before a
// write. It only runs when the record is not a BeforeSaver.
type Cleaner interface {
	Cleanup() error
}

// AfterSaver is implemented by records notified after a successful write.
type AfterSaver interface {
	AfterSave() error
}

// AfterLoader is implemented by records notified after being filled from a row.
type AfterLoader interface {
	AfterLoad() error
}

// ColumnBinder is implemented by records that copy row values into their own
// fields instead of relying on db struct tags.
type ColumnBinder interface {
	BindColumns(row adapter.Row) error
}

// Field is one column/value pair of a flattened record.
type Field struct {
	Column string
	Value  interface{}
}

// Fielder is implemented by records that supply their own column mapping.
type Fielder interface {
	DBFields() []Field
}

// mapper maps struct fields to columns through the db tag, lower-casing the
// names of untagged fields.
var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// prepareRecord runs the pre-write hook: BeforeSave when implemented,
// otherwise Cleanup.
func prepareRecord(record interface{}) error {
	switch r := record.(type) {
	case BeforeSaver:
		return r.BeforeSave()
	case Cleaner:
		return r.Cleanup()
	}
	return nil
}

// flatten turns a record into its scalar column/value pairs. Maps are emitted
// in key order, structs in field declaration order. Non-scalar values are
// skipped.
func flatten(record interface{}) ([]Field, error) {
	switch r := record.(type) {
	case nil:
		return nil, nil
	case Fielder:
		return scalarFields(r.DBFields()), nil
	case adapter.Row:
		fields := make([]Field, 0, r.Len())
		for i, col := range r.Columns() {
			fields = append(fields, Field{Column: col, Value: r.At(i)})
		}
		return scalarFields(fields), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Column: k, Value: r[k]})
		}
		return scalarFields(fields), nil
	}

	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		return flattenMap(v)
	case reflect.Struct:
		return flattenStruct(v), nil
	}
	return nil, adapter.NewValidationError("flatten", "unsupported record type %T", record)
}

func flattenMap(v reflect.Value) ([]Field, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, adapter.NewValidationError("flatten", "map keys must be strings, got %s", v.Type().Key())
	}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Column: k.String(), Value: v.MapIndex(k).Interface()})
	}
	return scalarFields(fields), nil
}

// flattenStruct reads the struct's top level fields, including those promoted
// from embedded structs. Fields nested in named struct fields are containers
// and are skipped, with the exception of scalar struct types such as time.Time.
func flattenStruct(v reflect.Value) []Field {
	tm := mapper.TypeMap(v.Type())

	var fields []Field
	for _, fi := range tm.Index {
		if !reachable(fi) || fi.Embedded {
			continue
		}
		fv, ok := fieldByIndex(v, fi.Index)
		if !ok || !fv.CanInterface() {
			continue
		}
		if !isScalarType(fi.Field.Type) {
			continue
		}
		value := fv.Interface()
		if fi.Field.Type.Kind() == reflect.Interface && !isScalarValue(value) {
			continue
		}
		fields = append(fields, Field{Column: fi.Name, Value: value})
	}
	return fields
}

// reachable reports whether every ancestor of fi below the root is an
// embedded struct.
func reachable(fi *reflectx.FieldInfo) bool {
	for p := fi.Parent; p != nil && p.Parent != nil; p = p.Parent {
		if !p.Embedded {
			return false
		}
	}
	return true
}

// fieldByIndex walks an index path without allocating, reporting false when a
// nil embedded pointer interrupts it.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			for v.Kind() == reflect.Ptr {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}

func scalarFields(fields []Field) []Field {
	out := fields[:0:0]
	for _, f := range fields {
		if isScalarValue(f.Value) {
			out = append(out, f)
		}
	}
	return out
}

// isScalarValue reports whether v can be written to a single column.
func isScalarValue(v interface{}) bool {
	if v == nil {
		return true
	}
	return isScalarType(reflect.TypeOf(v))
}

func isScalarType(t reflect.Type) bool {
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		return true
	}
	if t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	case reflect.Ptr:
		return isScalarType(t.Elem())
	case reflect.Interface:
		// decided by the dynamic value
		return true
	}
	return false
}

// columnsOf returns the column names of a flattened record.
func columnsOf(fields []Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}
