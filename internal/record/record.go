// Package record describes how plain data types map onto storage columns.
//
// A record type declares its stored fields once, as an ordered Descriptor.
// Storage backends walk that list in order for every write and read, so the
// column order of a table always matches the declaration order here.
package record

import (
	"fmt"
	"time"
)

// FieldType is the semantic type of a stored field.
type FieldType int

const (
	// Integer fields hold int64 values, or nil when nullable and unset.
	Integer FieldType = iota
	// Real fields hold float64 values.
	Real
	// Text fields hold string values.
	Text
	// Timestamp fields hold time.Time values.
	Timestamp
)

// String returns the lower-case name of the type.
func (t FieldType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Model is satisfied by a pointer to a record type that carries an identity.
// An identity of 0 means the record has not been persisted yet.
type Model[T any] interface {
	*T
	Identity() int64
	SetIdentity(id int64)
}

// Field describes one stored field of T.
//
// Get returns the current value as int64, float64, string, time.Time, or nil
// for an unset nullable integer. Set receives a value of the same shape.
type Field[T any] struct {
	Get      func(rec *T) any
	Set      func(rec *T, value any)
	Name     string
	Type     FieldType
	Nullable bool
}

// Descriptor is the ordered list of stored fields of a record type,
// identity excluded.
type Descriptor[T any] struct {
	Name   string
	Fields []Field[T]
}

// Lookup returns the field with the given name.
func (d Descriptor[T]) Lookup(name string) (Field[T], bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Names returns the field names in declaration order.
func (d Descriptor[T]) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// IntField declares an integer field.
func IntField[T any](name string, get func(*T) int64, set func(*T, int64)) Field[T] {
	return Field[T]{
		Name: name,
		Type: Integer,
		Get:  func(rec *T) any { return get(rec) },
		Set: func(rec *T, v any) {
			if n, ok := v.(int64); ok {
				set(rec, n)
			}
		},
	}
}

// OptionalIntField declares an integer field that may be NULL.
func OptionalIntField[T any](name string, get func(*T) *int64, set func(*T, *int64)) Field[T] {
	return Field[T]{
		Name:     name,
		Type:     Integer,
		Nullable: true,
		Get: func(rec *T) any {
			p := get(rec)
			if p == nil {
				return nil
			}
			return *p
		},
		Set: func(rec *T, v any) {
			n, ok := v.(int64)
			if !ok {
				set(rec, nil)
				return
			}
			set(rec, &n)
		},
	}
}

// RealField declares a real-number field.
func RealField[T any](name string, get func(*T) float64, set func(*T, float64)) Field[T] {
	return Field[T]{
		Name: name,
		Type: Real,
		Get:  func(rec *T) any { return get(rec) },
		Set: func(rec *T, v any) {
			if f, ok := v.(float64); ok {
				set(rec, f)
			}
		},
	}
}

// TextField declares a text field.
func TextField[T any](name string, get func(*T) string, set func(*T, string)) Field[T] {
	return Field[T]{
		Name: name,
		Type: Text,
		Get:  func(rec *T) any { return get(rec) },
		Set: func(rec *T, v any) {
			if s, ok := v.(string); ok {
				set(rec, s)
			}
		},
	}
}

// TimeField declares a timestamp field. Repositories hand timestamps back
// in UTC whatever location they were stored with.
func TimeField[T any](name string, get func(*T) time.Time, set func(*T, time.Time)) Field[T] {
	return Field[T]{
		Name: name,
		Type: Timestamp,
		Get:  func(rec *T) any { return get(rec) },
		Set: func(rec *T, v any) {
			if ts, ok := v.(time.Time); ok {
				set(rec, ts)
			}
		},
	}
}

// Clone copies every declared field and the identity of src into a new record.
func Clone[T any, P Model[T]](d Descriptor[T], src P) P {
	dst := P(new(T))
	dst.SetIdentity(src.Identity())
	for _, f := range d.Fields {
		f.Set(dst, f.Get(src))
	}
	return dst
}
