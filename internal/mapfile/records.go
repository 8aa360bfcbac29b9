package mapfile

import (
	"errors"
	"fmt"

	"schema-mapper/schema"
)

// ErrNotAnObject is returned when a document value cannot be decoded as a record.
var ErrNotAnObject = errors.New("value is not an object")

// DecodeRecord builds a record of s from a decoded JSON or YAML object.
// Nested and list fields are decoded recursively with their element schema.
// Keys that s does not declare are dropped.
func DecodeRecord(s *schema.RecordSchema, doc any) (*schema.Record, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects an object, got %T", ErrNotAnObject, s.Name(), doc)
	}

	values := make(map[string]any, len(obj))

	for name, f := range s.Fields().All() {
		v, present := obj[name]
		if !present {
			continue
		}

		of, _ := f.Of.(*schema.RecordSchema)

		switch {
		case v == nil || of == nil:
			values[name] = v
		case f.IsNested():
			rec, err := DecodeRecord(of, v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Name(), name, err)
			}

			values[name] = rec
		case f.IsList():
			items, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%s.%s: expected a list, got %T", s.Name(), name, v)
			}

			list := make([]any, len(items))
			for i, item := range items {
				rec, err := DecodeRecord(of, item)
				if err != nil {
					return nil, fmt.Errorf("%s.%s[%d]: %w", s.Name(), name, i, err)
				}

				list[i] = rec
			}

			values[name] = list
		}
	}

	return &schema.Record{Schema: s, Values: values}, nil
}

// EncodeValue converts records, recursively, into plain maps suitable for
// JSON or YAML encoding.
func EncodeValue(v any) any {
	switch t := v.(type) {
	case *schema.Record:
		if t == nil {
			return nil
		}

		out := make(map[string]any, len(t.Values))
		for k, val := range t.Values {
			out[k] = EncodeValue(val)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = EncodeValue(val)
		}

		return out
	default:
		return v
	}
}
