package schema

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// RecordField declares one field of a RecordSchema.
type RecordField struct {
	Name  string
	Shape Shape
	Of    *RecordSchema
}

// RecordSchema is a schema type declared at runtime, typically from a mapping
// file. Build it completely before compiling mappings that reference it.
type RecordSchema struct {
	name   string
	base   *RecordSchema
	fields []RecordField

	// rev counts mutations; the cached field map is valid while the
	// revisions along the base chain match stamp.
	rev    atomic.Uint64
	mu     sync.Mutex
	cached FieldMap
	stamp  []uint64
}

// NewRecordSchema creates an empty record schema.
func NewRecordSchema(name string) *RecordSchema {
	return &RecordSchema{name: name}
}

// Name returns the schema name.
func (s *RecordSchema) Name() string {
	return s.name
}

// Base returns the schema this one derives from, or nil.
func (s *RecordSchema) Base() *RecordSchema {
	return s.base
}

// Extends reports whether s is base or derives from it.
func (s *RecordSchema) Extends(base Type) bool {
	b, ok := base.(*RecordSchema)
	if !ok || b == nil {
		return false
	}

	for cur := s; cur != nil; cur = cur.base {
		if cur == b {
			return true
		}
	}

	return false
}

// WithBase sets the parent schema and returns s.
func (s *RecordSchema) WithBase(base *RecordSchema) *RecordSchema {
	s.base = base
	s.rev.Add(1)

	return s
}

// Field adds scalar fields and returns s.
func (s *RecordSchema) Field(names ...string) *RecordSchema {
	for _, n := range names {
		s.fields = append(s.fields, RecordField{Name: n, Shape: ShapeScalar})
	}

	s.rev.Add(1)

	return s
}

// Nested adds a field holding a single record of schema of.
func (s *RecordSchema) Nested(name string, of *RecordSchema) *RecordSchema {
	s.fields = append(s.fields, RecordField{Name: name, Shape: ShapeNested, Of: of})
	s.rev.Add(1)

	return s
}

// List adds a field holding a list of records of schema of.
func (s *RecordSchema) List(name string, of *RecordSchema) *RecordSchema {
	s.fields = append(s.fields, RecordField{Name: name, Shape: ShapeList, Of: of})
	s.rev.Add(1)

	return s
}

// Fields returns the effective fields: base fields first, then own fields.
// The result is cached until s or one of its bases changes.
func (s *RecordSchema) Fields() FieldMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh() {
		return s.cached
	}

	var chain []*RecordSchema

	s.stamp = s.stamp[:0]
	for cur := s; cur != nil; cur = cur.base {
		chain = append(chain, cur)
		s.stamp = append(s.stamp, cur.rev.Load())
	}

	s.cached = collectFields(chain)

	return s.cached
}

// fresh reports whether the cached field map matches the current chain.
func (s *RecordSchema) fresh() bool {
	i := 0

	for cur := s; cur != nil; cur = cur.base {
		if i >= len(s.stamp) || s.stamp[i] != cur.rev.Load() {
			return false
		}

		i++
	}

	return i > 0 && i == len(s.stamp)
}

// collectFields flattens a base chain given most derived first.
func collectFields(chain []*RecordSchema) FieldMap {
	var fields []Field

	for i := len(chain) - 1; i >= 0; i-- {
		for _, rf := range chain[i].fields {
			f := Field{Name: rf.Name, Shape: rf.Shape}
			if rf.Of != nil {
				f.Of = rf.Of
			} else {
				f.Shape = ShapeScalar
			}

			fields = append(fields, f)
		}
	}

	return NewFieldMap(fields...)
}

// Record is an instance of a RecordSchema.
type Record struct {
	Schema *RecordSchema
	Values map[string]any
}

// NewRecord creates a record holding a copy of values.
func NewRecord(s *RecordSchema, values map[string]any) *Record {
	return &Record{Schema: s, Values: maps.Clone(values)}
}

// Get returns the value of a field, nil when unset.
func (r *Record) Get(name string) any {
	if r == nil {
		return nil
	}

	return r.Values[name]
}

type recordResolver struct{}

// NewRecordResolver returns the resolver for RecordSchema types.
func NewRecordResolver() Resolver {
	return recordResolver{}
}

func (recordResolver) Kind() string { return "record" }

func (recordResolver) Accepts(t Type) bool {
	s, ok := t.(*RecordSchema)
	return ok && s != nil
}

func (recordResolver) FieldsAsSource(t Type) (FieldMap, error) {
	s, ok := t.(*RecordSchema)
	if !ok || s == nil {
		return FieldMap{}, fmt.Errorf("%w: %T", ErrUnsupportedKey, t)
	}

	return s.Fields(), nil
}

func (r recordResolver) FieldsAsDestination(t Type) (FieldMap, error) {
	return r.FieldsAsSource(t)
}

func (recordResolver) TypeOf(instance any) (Type, bool) {
	switch rec := instance.(type) {
	case *Record:
		if rec == nil || rec.Schema == nil {
			return nil, false
		}

		return rec.Schema, true
	case Record:
		if rec.Schema == nil {
			return nil, false
		}

		return rec.Schema, true
	default:
		return nil, false
	}
}

func (recordResolver) Get(instance any, field string) (any, error) {
	var rec *Record

	switch v := instance.(type) {
	case *Record:
		rec = v
	case Record:
		rec = &v
	default:
		return nil, fmt.Errorf("%w: %T is not a record", ErrTypeMismatch, instance)
	}

	if rec == nil {
		return nil, ErrNilInstance
	}

	if rec.Schema != nil && !rec.Schema.Fields().Has(field) {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, field, rec.Schema.Name())
	}

	return rec.Values[field], nil
}

func (recordResolver) Build(t Type, values map[string]any) (any, error) {
	s, ok := t.(*RecordSchema)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, t)
	}

	fields := s.Fields()
	for name := range values {
		if !fields.Has(name) {
			return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, name, s.Name())
		}
	}

	return NewRecord(s, values), nil
}
