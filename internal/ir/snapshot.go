package ir

import (
	"fmt"
	"strings"
)

// Snapshot is one readout of live game state: field name to scalar value.
// A Snapshot is never mutated after it is published by a source.
type Snapshot map[string]IRValue

// Get returns the value of field and whether it is present.
func (s Snapshot) Get(field string) (IRValue, bool) {
	v, ok := s[field]
	return v, ok
}

// Int returns the integer value of field.
func (s Snapshot) Int(field string) (int64, error) {
	v, ok := s[field]
	if !ok {
		return 0, fmt.Errorf("snapshot field %q: %w", field, ErrNotFound)
	}
	i, ok := v.(IRInt)
	if !ok {
		return 0, fmt.Errorf("snapshot field %q is %s, not int", field, KindOf(v))
	}
	return int64(i), nil
}

// Bool returns the boolean value of field, false when absent.
func (s Snapshot) Bool(field string) bool {
	b, _ := s[field].(IRBool)
	return bool(b)
}

// String returns the string value of field, "" when absent.
func (s Snapshot) String(field string) string {
	str, _ := s[field].(IRString)
	return string(str)
}

// Keys returns the field names in canonical order.
func (s Snapshot) Keys() []string {
	return sortedKeys(s)
}

// Format renders the snapshot as one "name: value" line per field.
func (s Snapshot) Format() string {
	var b strings.Builder
	for _, k := range s.Keys() {
		fmt.Fprintf(&b, "%s: %s\n", k, Format(s[k]))
	}
	return b.String()
}

// FieldSet describes the fields a snapshot source publishes and their kinds.
// Route triggers are validated against it at load time.
type FieldSet map[string]Kind

// Has reports whether name is a known field.
func (f FieldSet) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Names returns the known field names in canonical order.
func (f FieldSet) Names() []string {
	return sortedKeys(f)
}
