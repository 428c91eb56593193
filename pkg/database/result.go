package database

// Result reports the outcome of a write.
type Result struct {
	InsertID     int64 `json:"insert_id"`
	RowsAffected int64 `json:"rows_affected"`

	ok bool
}

// OK reports whether the write completed.
func (r Result) OK() bool { return r.ok }

// Value returns the generated id when there is one, and otherwise whether the
// write completed.
func (r Result) Value() interface{} {
	if r.InsertID != 0 {
		return r.InsertID
	}
	return r.ok
}
