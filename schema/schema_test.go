package schema

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Street string
	City   string
}

type person struct {
	Name      string
	Age       int
	Home      *address
	Previous  []address
	Tags      []string
	Born      time.Time
	Secret    string `mapper:"-"`
	Nick      string `mapper:"nickname"`
	unexposed string
}

type Base struct {
	ID   int
	Kind string
}

type Derived struct {
	Base
	Extra string
}

type Deeper struct {
	*Derived
	More bool
}

func TestStructFieldsClassification(t *testing.T) {
	reg := NewRegistry()

	fm, err := reg.Source(Struct[person]())
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Age", "Home", "Previous", "Tags", "Born", "nickname"}, fm.Names())

	home, ok := fm.Get("Home")
	require.True(t, ok)
	assert.Equal(t, ShapeNested, home.Shape)
	assert.Equal(t, Struct[address](), home.Of)
	assert.True(t, home.IsNested())

	prev, _ := fm.Get("Previous")
	assert.Equal(t, ShapeList, prev.Shape)
	assert.True(t, prev.IsList())
	assert.Equal(t, Struct[address](), prev.Of)

	tags, _ := fm.Get("Tags")
	assert.Equal(t, ShapeScalar, tags.Shape)

	born, _ := fm.Get("Born")
	assert.Equal(t, ShapeScalar, born.Shape, "time.Time has no exported fields")

	assert.False(t, fm.Has("Secret"))
	assert.False(t, fm.Has("unexposed"))
}

func TestStructPromotedFields(t *testing.T) {
	reg := NewRegistry()

	fm, err := reg.Source(Struct[Deeper]())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Kind", "Extra", "More"}, fm.Names())

	assert.True(t, Struct[Derived]().Extends(Struct[Base]()))
	assert.True(t, Struct[Deeper]().Extends(Struct[Base]()))
	assert.True(t, Struct[Base]().Extends(Struct[Base]()))
	assert.False(t, Struct[Base]().Extends(Struct[Derived]()))
	assert.False(t, Struct[Base]().Extends(NewRecordSchema("base")))
}

func TestStructGetAndBuild(t *testing.T) {
	res := NewStructResolver()
	st := Struct[Deeper]()

	built, err := res.Build(st, map[string]any{"ID": 7, "Extra": "x", "More": true})
	require.NoError(t, err)

	d, ok := built.(Deeper)
	require.True(t, ok)
	require.NotNil(t, d.Derived)
	assert.Equal(t, 7, d.ID)
	assert.Equal(t, "x", d.Extra)

	v, err := res.Get(&d, "ID")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// Promoted through a nil embedded pointer reads as nil.
	v, err = res.Get(Deeper{}, "Kind")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = res.Get(d, "Missing")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = res.Build(st, map[string]any{"Missing": 1})
	require.ErrorIs(t, err, ErrUnknownField)

	typ, ok := res.TypeOf(&d)
	require.True(t, ok)
	assert.Equal(t, st, typ)
}

type hidden struct {
	X int
}

type embedsHidden struct {
	*hidden
	Y int
}

func TestStructHiddenEmbeddedPointer(t *testing.T) {
	reg := NewRegistry()
	st := Struct[embedsHidden]()

	src, err := reg.Source(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, src.Names())

	dst, err := reg.Destination(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, dst.Names())

	res := NewStructResolver()

	v, err := res.Get(embedsHidden{hidden: &hidden{X: 3}}, "X")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	assert.NotPanics(t, func() {
		_, err = res.Build(st, map[string]any{"X": 1, "Y": 2})
	})
	require.ErrorIs(t, err, ErrNotAssignable)

	built, err := res.Build(st, map[string]any{"Y": 2})
	require.NoError(t, err)
	assert.Equal(t, embedsHidden{Y: 2}, built)
}

func TestAssignAdaptsValues(t *testing.T) {
	res := NewStructResolver()

	built, err := res.Build(Struct[person](), map[string]any{
		"Name":     "Ada",
		"Age":      int64(36),
		"Home":     address{Street: "Main", City: "London"},
		"Previous": []any{&address{City: "Paris"}, address{City: "Rome"}},
		"Tags":     []any{"a", "b"},
		"nickname": nil,
	})
	require.NoError(t, err)

	p := built.(person)
	assert.Equal(t, 36, p.Age)
	require.NotNil(t, p.Home)
	assert.Equal(t, "London", p.Home.City)
	assert.Equal(t, []address{{City: "Paris"}, {City: "Rome"}}, p.Previous)
	assert.Equal(t, []string{"a", "b"}, p.Tags)
	assert.Empty(t, p.Nick)

	_, err = res.Build(Struct[person](), map[string]any{"Age": "thirty"})
	require.ErrorIs(t, err, ErrNotAssignable)

	var s string
	require.ErrorIs(t, Assign(reflect.ValueOf(&s).Elem(), 65), ErrNotAssignable)
}

func TestConvertNumber(t *testing.T) {
	type celsius int16

	tests := []struct {
		name    string
		val     any
		to      reflect.Type
		want    any
		wantErr bool
	}{
		{name: "whole float to int", val: 2.0, to: reflect.TypeFor[int](), want: 2},
		{name: "json float to named int", val: 21.0, to: reflect.TypeFor[celsius](), want: celsius(21)},
		{name: "fraction", val: 2.9, to: reflect.TypeFor[int](), wantErr: true},
		{name: "float out of range", val: 300.7, to: reflect.TypeFor[int8](), wantErr: true},
		{name: "whole float out of range", val: 300.0, to: reflect.TypeFor[int8](), wantErr: true},
		{name: "huge float", val: 1e19, to: reflect.TypeFor[int64](), wantErr: true},
		{name: "nan", val: math.NaN(), to: reflect.TypeFor[int](), wantErr: true},
		{name: "negative float to uint", val: -1.0, to: reflect.TypeFor[uint](), wantErr: true},
		{name: "float to uint", val: 7.0, to: reflect.TypeFor[uint8](), want: uint8(7)},
		{name: "int narrows", val: 127, to: reflect.TypeFor[int8](), want: int8(127)},
		{name: "int overflows", val: 300, to: reflect.TypeFor[int8](), wantErr: true},
		{name: "negative int to uint", val: -1, to: reflect.TypeFor[uint32](), wantErr: true},
		{name: "uint overflows int64", val: uint64(math.MaxUint64), to: reflect.TypeFor[int64](), wantErr: true},
		{name: "uint to int", val: uint16(9), to: reflect.TypeFor[int](), want: 9},
		{name: "int to float", val: 3, to: reflect.TypeFor[float64](), want: 3.0},
		{name: "float64 to float32", val: 1.5, to: reflect.TypeFor[float32](), want: float32(1.5)},
		{name: "float32 overflow", val: 1e300, to: reflect.TypeFor[float32](), wantErr: true},
		{name: "not a number", val: "1", to: reflect.TypeFor[int](), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertNumber(reflect.ValueOf(tt.val), tt.to)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotAssignable)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestAssignRejectsLossyNumbers(t *testing.T) {
	type gauge struct {
		Level int8
		Count uint
		Ratio float32
	}

	res := NewStructResolver()

	built, err := res.Build(Struct[gauge](), map[string]any{"Level": 12.0, "Count": int64(4), "Ratio": 0.5})
	require.NoError(t, err)
	assert.Equal(t, gauge{Level: 12, Count: 4, Ratio: 0.5}, built)

	_, err = res.Build(Struct[gauge](), map[string]any{"Level": 300.7})
	require.ErrorIs(t, err, ErrNotAssignable)
	assert.ErrorContains(t, err, "Level")

	_, err = res.Build(Struct[gauge](), map[string]any{"Count": -3})
	require.ErrorIs(t, err, ErrNotAssignable)

	var n int
	require.ErrorIs(t, Assign(reflect.ValueOf(&n).Elem(), 2.5), ErrNotAssignable)
	assert.Zero(t, n)
}

func TestRecordSchema(t *testing.T) {
	author := NewRecordSchema("Author").Field("name")
	animal := NewRecordSchema("Animal").Field("name", "sound")
	dog := NewRecordSchema("Dog").WithBase(animal).Field("breed").List("owners", author)

	fm := dog.Fields()
	assert.Equal(t, []string{"name", "sound", "breed", "owners"}, fm.Names())

	owners, _ := fm.Get("owners")
	assert.Equal(t, ShapeList, owners.Shape)
	assert.Equal(t, Type(author), owners.Of)

	assert.True(t, dog.Extends(animal))
	assert.False(t, animal.Extends(dog))

	res := NewRecordResolver()
	rec, err := res.Build(dog, map[string]any{"name": "Rex", "breed": "lab"})
	require.NoError(t, err)

	got, err := res.Get(rec, "breed")
	require.NoError(t, err)
	assert.Equal(t, "lab", got)

	got, err = res.Get(rec, "sound")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = res.Get(rec, "wings")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = res.Build(dog, map[string]any{"wings": 2})
	require.ErrorIs(t, err, ErrUnknownField)

	typ, ok := res.TypeOf(rec)
	require.True(t, ok)
	assert.Equal(t, Type(dog), typ)
}

func TestRecordSchemaFieldsFollowChanges(t *testing.T) {
	animal := NewRecordSchema("Animal").Field("name")
	dog := NewRecordSchema("Dog").WithBase(animal).Field("breed")

	assert.Equal(t, []string{"name", "breed"}, dog.Fields().Names())
	assert.Equal(t, []string{"name", "breed"}, dog.Fields().Names())

	dog.Field("age")
	assert.Equal(t, []string{"name", "breed", "age"}, dog.Fields().Names())

	animal.Field("legs")
	assert.Equal(t, []string{"name", "legs", "breed", "age"}, dog.Fields().Names())

	res := NewRecordResolver()
	rec := NewRecord(dog, map[string]any{"legs": 4})

	got, err := res.Get(rec, "legs")
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	dog.WithBase(nil)
	assert.Equal(t, []string{"breed", "age"}, dog.Fields().Names())

	_, err = res.Get(rec, "legs")
	require.ErrorIs(t, err, ErrUnknownField)
}

type countingResolver struct {
	Resolver
	calls int
}

func (c *countingResolver) FieldsAsSource(t Type) (FieldMap, error) {
	c.calls++
	return c.Resolver.FieldsAsSource(t)
}

func TestRegistryMemoizesAndFails(t *testing.T) {
	counting := &countingResolver{Resolver: NewStructResolver()}

	reg := &Registry{}
	reg.Register(counting)

	for range 3 {
		_, err := reg.Source(Struct[person]())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, counting.calls)

	_, err := reg.Destination(NewRecordSchema("orphan"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoResolver)

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "destination", re.Mode)
	assert.Contains(t, err.Error(), "orphan")
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "scalar", ShapeScalar.String())
	assert.Equal(t, "list", ShapeList.String())
	assert.Equal(t, "Shape(9)", Shape(9).String())
}
