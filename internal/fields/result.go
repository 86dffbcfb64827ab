package fields

import "strings"

// Result maps every kind of a table to an optional value. A nil value means
// "not found"; a kind is never missing from the map.
type Result struct {
	table  Table
	values map[Kind]*string
}

// NewResult returns an all-nil result covering every kind of t.
func NewResult(t Table) Result {
	r := Result{table: t, values: make(map[Kind]*string, t.Len())}
	for _, k := range t.Kinds() {
		r.values[k] = nil
	}
	return r
}

// Set stores v for k. Blank strings are stored as nil and kinds outside the table are ignored.
func (r Result) Set(k Kind, v string) {
	if _, ok := r.values[k]; !ok {
		return
	}
	v = strings.TrimSpace(v)
	if v == "" {
		r.values[k] = nil
		return
	}
	r.values[k] = &v
}

// Clear resets k to nil.
func (r Result) Clear(k Kind) {
	if _, ok := r.values[k]; ok {
		r.values[k] = nil
	}
}

// Get returns the value of k, or nil.
func (r Result) Get(k Kind) *string {
	v := r.values[k]
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// Value returns the value of k or "" when absent.
func (r Result) Value(k Kind) string {
	if v := r.values[k]; v != nil {
		return *v
	}
	return ""
}

// Keys lists every kind in table order.
func (r Result) Keys() []Kind { return r.table.Kinds() }

// Table returns the table the result was built for.
func (r Result) Table() Table { return r.table }

// Usable is true when at least one kind has a value.
func (r Result) Usable() bool {
	for _, v := range r.values {
		if v != nil {
			return true
		}
	}
	return false
}

// Found counts the kinds with a value.
func (r Result) Found() int {
	n := 0
	for _, v := range r.values {
		if v != nil {
			n++
		}
	}
	return n
}

// Map returns a copy keyed by internal key, with nil for absent values.
func (r Result) Map() map[string]*string {
	out := make(map[string]*string, len(r.values))
	for k := range r.values {
		out[string(k)] = r.Get(k)
	}
	return out
}

// Clone returns an independent copy.
func (r Result) Clone() Result {
	c := NewResult(r.table)
	for k, v := range r.values {
		if v != nil {
			c.Set(k, *v)
		}
	}
	return c
}
