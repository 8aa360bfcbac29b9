package schema

import (
	"iter"
	"reflect"
)

// Type identifies a schema type participating in a mapping.
// Implementations must be comparable; they are used as map keys.
type Type interface {
	// Name returns a human-readable type name.
	Name() string
	// Extends reports whether the type is base or derives from it.
	Extends(base Type) bool
}

//go:generate go tool stringer -type=Shape -linecomment -output=shape_string.go

// Shape classifies a field for automatic mapping.
type Shape int

const (
	ShapeScalar Shape = iota // scalar
	ShapeNested              // nested
	ShapeList                // list
)

// Field describes one field of a schema type.
type Field struct {
	// Name is the field name used in mapping rules.
	Name string
	// Shape classifies the field value.
	Shape Shape
	// Of is the element schema type for nested and list fields.
	Of Type
	// GoType is the declared Go type of the field, nil when unknown.
	GoType reflect.Type
}

// IsNested returns true if the field holds a single instance of another schema.
func (f Field) IsNested() bool {
	return f.Shape == ShapeNested && f.Of != nil
}

// IsList returns true if the field holds a list of instances of another schema.
func (f Field) IsList() bool {
	return f.Shape == ShapeList && f.Of != nil
}

// FieldMap is an ordered name -> Field mapping.
type FieldMap struct {
	fields []Field
	index  map[string]int
}

// NewFieldMap builds a FieldMap preserving declaration order.
// A repeated name replaces the earlier field in place.
func NewFieldMap(fields ...Field) FieldMap {
	m := FieldMap{index: make(map[string]int, len(fields))}

	for _, f := range fields {
		if i, ok := m.index[f.Name]; ok {
			m.fields[i] = f
			continue
		}

		m.index[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
	}

	return m
}

// Get returns the field with the given name.
func (m FieldMap) Get(name string) (Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}

	return m.fields[i], true
}

// Has returns true if a field with the given name exists.
func (m FieldMap) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Len returns the number of fields.
func (m FieldMap) Len() int {
	return len(m.fields)
}

// Names returns the field names in declaration order.
func (m FieldMap) Names() []string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.Name
	}

	return names
}

// All iterates fields in declaration order.
func (m FieldMap) All() iter.Seq2[string, Field] {
	return func(yield func(string, Field) bool) {
		for _, f := range m.fields {
			if !yield(f.Name, f) {
				return
			}
		}
	}
}
