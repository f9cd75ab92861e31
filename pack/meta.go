package pack

import (
	"maps"
	"reflect"
)

// Meta is a type-indexed bag holding at most one value per Go type.
// The zero value is ready to use. Meta is not safe for concurrent use;
// it travels with a single package.
type Meta struct {
	values map[reflect.Type]any
}

// Insert stores v under its type and returns the value it replaced.
func Insert[T any](m *Meta, v T) (old T, replaced bool) {
	if m.values == nil {
		m.values = make(map[reflect.Type]any)
	}
	key := reflect.TypeFor[T]()
	if prev, ok := m.values[key]; ok {
		old, _ = prev.(T)
		replaced = true
	}
	m.values[key] = v
	return old, replaced
}

// Get returns the value stored under type T.
func Get[T any](m *Meta) (T, bool) {
	v, ok := m.values[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	// A nil interface value is stored as nil and comes back as the zero T.
	t, _ := v.(T)
	return t, true
}

// Remove deletes and returns the value stored under type T.
func Remove[T any](m *Meta) (T, bool) {
	key := reflect.TypeFor[T]()
	v, ok := m.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(m.values, key)
	t, _ := v.(T)
	return t, true
}

// Len returns the number of stored values.
func (m *Meta) Len() int { return len(m.values) }

// Clone returns a shallow copy; stored values are not duplicated.
func (m *Meta) Clone() Meta {
	if len(m.values) == 0 {
		return Meta{}
	}
	return Meta{values: maps.Clone(m.values)}
}

// TaskName is the logical name of the crawl task that produced a package.
type TaskName string

// SourceURL is the URL a package was fetched from.
type SourceURL string
