package generator

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Value is an untyped generated value: nil, a scalar, []any, map[string]any or *Record.
type Value = any

// Record is a generated struct value. Keys keep the order in which they were first set,
// which is the declared field order for engine output.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record with room for n fields.
func NewRecord(n int) *Record {
	return &Record{keys: make([]string, 0, n), values: make(map[string]any, n)}
}

// Set stores v under key, appending key if it is new.
func (r *Record) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present. A present key may hold nil.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Str returns the value under key if it is a string.
func (r *Record) Str(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// Record returns the nested record under key, if any.
func (r *Record) Record(key string) *Record {
	rec, _ := r.values[key].(*Record)
	return rec
}

// List returns the list under key, if any.
func (r *Record) List(key string) []any {
	l, _ := r.values[key].([]any)
	return l
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in order.
func (r *Record) Keys() []string { return append([]string(nil), r.keys...) }

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// Update sets every entry of values, in sorted key order for reproducibility of the
// resulting key order.
func (r *Record) Update(values map[string]any) {
	for _, k := range sortedKeys(values) {
		r.Set(k, values[k])
	}
}

// Clone returns a shallow copy: nested records and lists are shared.
func (r *Record) Clone() *Record {
	c := NewRecord(len(r.keys))
	for _, k := range r.keys {
		c.Set(k, r.values[k])
	}
	return c
}

// MarshalJSON encodes the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
