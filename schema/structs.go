package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag consulted for field names.
// `mapper:"-"` hides a field, `mapper:"name"` renames it.
const TagName = "mapper"

var (
	ErrNotAStruct     = errors.New("type is not a struct")
	ErrUnknownField   = errors.New("unknown field")
	ErrNilInstance    = errors.New("instance is nil")
	ErrTypeMismatch   = errors.New("instance does not match schema type")
	ErrNotAssignable  = errors.New("value is not assignable")
	ErrUnsupportedKey = errors.New("unsupported schema type")
)

// StructType is the schema type of a Go struct.
type StructType struct {
	rt reflect.Type
}

// StructOf returns the schema type of rt, dereferencing pointers.
func StructOf(rt reflect.Type) StructType {
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	return StructType{rt: rt}
}

// Struct returns the schema type of T.
func Struct[T any]() StructType {
	return StructOf(reflect.TypeFor[T]())
}

// Reflect returns the underlying struct type.
func (t StructType) Reflect() reflect.Type {
	return t.rt
}

// Name returns the qualified Go type name.
func (t StructType) Name() string {
	if t.rt == nil {
		return "<nil>"
	}

	return t.rt.String()
}

// Extends reports whether t is base or embeds it, directly or transitively.
func (t StructType) Extends(base Type) bool {
	b, ok := base.(StructType)
	if !ok || t.rt == nil || b.rt == nil {
		return false
	}

	return embeds(t.rt, b.rt, map[reflect.Type]bool{})
}

func embeds(t, base reflect.Type, seen map[reflect.Type]bool) bool {
	if t == base {
		return true
	}

	if t.Kind() != reflect.Struct || seen[t] {
		return false
	}

	seen[t] = true

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		if embeds(deref(f.Type), base, seen) {
			return true
		}
	}

	return false
}

// structInfo is the resolved layout of one struct type.
type structInfo struct {
	fields FieldMap
	// writable excludes fields promoted through an unexported embedded
	// pointer, which cannot be allocated from outside the package.
	writable FieldMap
	index    map[string][]int
	sealed   map[string]bool
}

type structResolver struct {
	cache sync.Map // reflect.Type -> *structInfo
}

// NewStructResolver returns the resolver for Go struct types.
func NewStructResolver() Resolver {
	return &structResolver{}
}

func (r *structResolver) Kind() string { return "struct" }

func (r *structResolver) Accepts(t Type) bool {
	st, ok := t.(StructType)
	return ok && st.rt != nil && st.rt.Kind() == reflect.Struct
}

func (r *structResolver) FieldsAsSource(t Type) (FieldMap, error) {
	info, err := r.info(t)
	if err != nil {
		return FieldMap{}, err
	}

	return info.fields, nil
}

func (r *structResolver) FieldsAsDestination(t Type) (FieldMap, error) {
	info, err := r.info(t)
	if err != nil {
		return FieldMap{}, err
	}

	return info.writable, nil
}

func (r *structResolver) TypeOf(instance any) (Type, bool) {
	rt := reflect.TypeOf(instance)
	if rt == nil {
		return nil, false
	}

	st := StructOf(rt)
	if st.rt.Kind() != reflect.Struct {
		return nil, false
	}

	return st, true
}

func (r *structResolver) Get(instance any, field string) (any, error) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, ErrNilInstance
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotAStruct, v.Type())
	}

	info, err := r.info(StructType{rt: v.Type()})
	if err != nil {
		return nil, err
	}

	idx, ok := info.index[field]
	if !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, field, v.Type())
	}

	fv, err := v.FieldByIndexErr(idx)
	if err != nil {
		// Promoted through a nil embedded pointer.
		return nil, nil
	}

	return fv.Interface(), nil
}

func (r *structResolver) Build(t Type, values map[string]any) (any, error) {
	info, err := r.info(t)
	if err != nil {
		return nil, err
	}

	st := t.(StructType)
	out := reflect.New(st.rt).Elem()

	for name, val := range values {
		idx, ok := info.index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q on %s", ErrUnknownField, name, st.rt)
		}

		if info.sealed[name] {
			return nil, fmt.Errorf("%w: field %s.%s is promoted through an unexported pointer", ErrNotAssignable, st.rt, name)
		}

		fv, err := fieldByIndexAlloc(out, idx)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", st.rt, name, err)
		}

		if err := Assign(fv, val); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", st.rt, name, err)
		}
	}

	return out.Interface(), nil
}

func (r *structResolver) info(t Type) (*structInfo, error) {
	st, ok := t.(StructType)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, t)
	}

	if st.rt == nil || st.rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotAStruct, st.Name())
	}

	if cached, ok := r.cache.Load(st.rt); ok {
		return cached.(*structInfo), nil
	}

	var fields, writable []Field

	index := map[string][]int{}
	sealed := map[string]bool{}

	for _, sf := range reflect.VisibleFields(st.rt) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		name, skip := fieldName(sf)
		if skip {
			continue
		}

		shape, of := classify(sf.Type)
		f := Field{Name: name, Shape: shape, Of: of, GoType: sf.Type}
		fields = append(fields, f)
		index[name] = sf.Index

		if throughHiddenPointer(st.rt, sf.Index) {
			sealed[name] = true
		} else {
			writable = append(writable, f)
		}
	}

	info := &structInfo{
		fields:   NewFieldMap(fields...),
		writable: NewFieldMap(writable...),
		index:    index,
		sealed:   sealed,
	}
	actual, _ := r.cache.LoadOrStore(st.rt, info)

	return actual.(*structInfo), nil
}

// fieldName applies the mapper tag to a struct field.
func fieldName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get(TagName)
	if tag == "-" {
		return "", true
	}

	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}

	if tag != "" {
		return tag, false
	}

	return sf.Name, false
}

// classify derives the Shape of a struct field from its Go type.
func classify(ft reflect.Type) (Shape, Type) {
	base := deref(ft)
	if isSchemaStruct(base) {
		return ShapeNested, StructOf(base)
	}

	if base.Kind() == reflect.Slice || base.Kind() == reflect.Array {
		elem := deref(base.Elem())
		if isSchemaStruct(elem) {
			return ShapeList, StructOf(elem)
		}
	}

	return ShapeScalar, nil
}

// isSchemaStruct treats structs without exported fields (time.Time etc.) as scalars.
func isSchemaStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}

	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			return true
		}
	}

	return false
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// throughHiddenPointer reports whether the field at index is promoted through
// an embedded pointer to an unexported type.
func throughHiddenPointer(rt reflect.Type, index []int) bool {
	for _, x := range index[:len(index)-1] {
		f := deref(rt).Field(x)
		if f.Type.Kind() == reflect.Pointer && !f.IsExported() {
			return true
		}

		rt = f.Type
	}

	return false
}

// fieldByIndexAlloc walks index, allocating nil embedded pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("%w: cannot allocate embedded %s", ErrNotAssignable, v.Type())
				}

				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(x)
	}

	return v, nil
}
