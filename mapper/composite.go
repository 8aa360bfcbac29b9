package mapper

import (
	"fmt"
	"iter"
	"reflect"

	"schema-mapper/schema"
)

// MapListOf returns a bound action mapping every element of a list field
// through el. A nil list maps to nil. Elements share the mapping's context and
// run inside a nested loop.
func MapListOf(el Element) func(*Mapping, any) (any, error) {
	return func(m *Mapping, list any) (any, error) {
		if isNone(list) || isNilSlice(list) {
			return nil, nil
		}

		seq, err := elements(list)
		if err != nil {
			return nil, err
		}

		out := []any{}

		for v, err := range Each(el, seq, m.Context()) {
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	}
}

// MapNested returns a bound action mapping a single nested value through el.
// A nil value maps to nil.
func MapNested(el Element) func(*Mapping, any) (any, error) {
	return func(m *Mapping, v any) (any, error) {
		if isNone(v) {
			return nil, nil
		}

		return el.Apply(v, m.Context())
	}
}

func isNilSlice(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.IsNil()
}

func elements(list any) (iter.Seq[any], error) {
	switch s := list.(type) {
	case iter.Seq[any]:
		return s, nil
	case []any:
		return func(yield func(any) bool) {
			for _, v := range s {
				if !yield(v) {
					return
				}
			}
		}, nil
	}

	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot iterate over %T", list)
	}

	return func(yield func(any) bool) {
		for i := range rv.Len() {
			if !yield(rv.Index(i).Interface()) {
				return
			}
		}
	}, nil
}

// Cloner copies instances of one schema type field by field into new
// instances. Field values are shared, not copied recursively.
type Cloner struct {
	typ    schema.Type
	res    schema.Resolver
	fields []string
}

// Clone returns a Cloner for t.
func Clone(schemas *schema.Registry, t schema.Type) (*Cloner, error) {
	res, err := schemas.Resolver(t)
	if err != nil {
		return nil, err
	}

	// Only fields the resolver can build are copied.
	fm, err := schemas.Destination(t)
	if err != nil {
		return nil, err
	}

	return &Cloner{typ: t, res: res, fields: fm.Names()}, nil
}

// Apply returns a new instance holding the field values of source.
func (c *Cloner) Apply(source any, _ *Context) (any, error) {
	if isNone(source) {
		return nil, nil
	}

	values := make(map[string]any, len(c.fields))

	for _, name := range c.fields {
		v, err := c.res.Get(source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to clone %s.%s: %w", c.typ.Name(), name, err)
		}

		values[name] = v
	}

	return c.res.Build(c.typ, values)
}

func (c *Cloner) String() string {
	return "clone " + c.typ.Name()
}
