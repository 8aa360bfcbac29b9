package mapper

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"reflect"

	"schema-mapper/schema"
)

// ErrValueCount is returned when a rule produces a different number of values
// than it has destination fields.
var ErrValueCount = errors.New("produced value count does not match destination fields")

// Mapping is one in-progress application of a Definition to a source instance.
// Bound actions receive it as their first argument.
type Mapping struct {
	def    *Definition
	source any
	ctx    *Context
}

// Source returns the instance being mapped.
func (m *Mapping) Source() any {
	return m.source
}

// Context returns the context shared by the current application.
func (m *Mapping) Context() *Context {
	return m.ctx
}

// Definition returns the definition being applied, after sub-type dispatch.
func (m *Mapping) Definition() *Definition {
	return m.def
}

// LoopIndex returns the position within the innermost sequence being mapped.
func (m *Mapping) LoopIndex() (int, bool) {
	return m.ctx.CurrentIndex()
}

// LoopLevel returns the sequence nesting depth.
func (m *Mapping) LoopLevel() int {
	return m.ctx.Depth()
}

// InLoop returns true if the mapping runs as part of a sequence.
func (m *Mapping) InLoop() bool {
	return m.ctx.InLoop()
}

// Element maps one source instance. *Definition and *Cloner implement it.
type Element interface {
	Apply(source any, ctx *Context) (any, error)
}

// Apply maps src to a new destination instance.
// A nil ctx is replaced by an empty one.
func (d *Definition) Apply(src any, ctx *Context) (any, error) {
	return d.ApplyWith(src, ctx, nil)
}

// ApplyWith is Apply with the field accumulator pre-seeded from overrides.
// Rules writing the same fields replace the override values.
func (d *Definition) ApplyWith(src any, ctx *Context, overrides map[string]any) (any, error) {
	target, err := d.dispatch(src)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = NewContext(nil)
	}

	return target.convert(src, ctx, overrides)
}

// ApplyEach lazily maps every instance of seq. See Each.
func (d *Definition) ApplyEach(seq iter.Seq[any], ctx *Context) iter.Seq2[any, error] {
	return Each(d, seq, ctx)
}

// Each lazily maps every instance of seq through el, tracking the position in
// ctx. All elements share ctx (a new one per iteration when nil). Iteration
// stops after the first error.
func Each(el Element, seq iter.Seq[any], ctx *Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		c := ctx
		if c == nil {
			c = NewContext(nil)
		}

		c.enterLoop()
		defer c.exitLoop()

		for src := range seq {
			out, err := el.Apply(src, c)
			if !yield(out, err) || err != nil {
				return
			}

			c.advance()
		}
	}
}

// ApplySlice maps every element of src and collects the results.
func ApplySlice[S any](el Element, src []S, ctx *Context) ([]any, error) {
	seq := func(yield func(any) bool) {
		for _, s := range src {
			if !yield(s) {
				return
			}
		}
	}

	out := make([]any, 0, len(src))

	for v, err := range Each(el, seq, ctx) {
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

// Convert applies d and returns the result as D. A destination built as a
// value is returned by pointer when D is a pointer to it.
func Convert[D any](d *Definition, src any, ctx *Context) (D, error) {
	var zero D

	out, err := d.Apply(src, ctx)
	if err != nil {
		return zero, err
	}

	if v, ok := out.(D); ok {
		return v, nil
	}

	rv := reflect.ValueOf(out)
	if rv.IsValid() && reflect.PointerTo(rv.Type()) == reflect.TypeFor[D]() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)

		return p.Interface().(D), nil
	}

	return zero, &ExecutionError{
		Pair: d.String(),
		Err:  fmt.Errorf("result of type %T is not %s", out, reflect.TypeFor[D]()),
	}
}

// dispatch selects the definition handling the exact type of src.
func (d *Definition) dispatch(src any) (*Definition, error) {
	t, ok := d.source.TypeOf(src)
	if !ok {
		return nil, &DispatchError{Want: d.from, Got: fmt.Sprintf("%T", src)}
	}

	if t == d.from {
		return d, nil
	}

	if sub, found := d.findSub(t); found {
		return sub, nil
	}

	return nil, &DispatchError{Want: d.from, Got: t.Name()}
}

// findSub searches the registered specializations depth-first.
func (d *Definition) findSub(t schema.Type) (*Definition, bool) {
	for _, sub := range d.Subs() {
		if sub.from == t {
			return sub, true
		}

		if found, ok := sub.findSub(t); ok {
			return found, true
		}
	}

	return nil, false
}

func (d *Definition) convert(src any, ctx *Context, overrides map[string]any) (any, error) {
	values := make(map[string]any, len(d.rules)+len(overrides))
	maps.Copy(values, overrides)

	m := &Mapping{def: d, source: src, ctx: ctx}

	for i := range d.rules {
		if err := m.applyRule(&d.rules[i], values); err != nil {
			return nil, err
		}
	}

	out, err := d.factory(d.to, values)
	if err != nil {
		return nil, &ExecutionError{Pair: d.String(), Rule: "destination factory", Err: err}
	}

	return out, nil
}

func (m *Mapping) applyRule(r *CompiledRule, values map[string]any) error {
	args := make([]any, 0, len(r.From)+1)
	if r.Bind {
		args = append(args, m)
	}

	for _, name := range r.From {
		v, err := m.def.source.Get(m.source, name)
		if err != nil {
			return m.fail(r, fmt.Errorf("failed to read %s: %w", name, err))
		}

		args = append(args, v)
	}

	produced := args

	if r.Action != nil {
		var err error

		produced, err = r.Action.call(args)
		if err != nil {
			return m.fail(r, err)
		}
	}

	switch {
	case r.ToList && r.Action == nil:
		// The source values themselves form the list.
		produced = []any{append([]any(nil), produced...)}
	case r.ToList:
		produced = []any{collect(produced)}
	case len(produced) == 1:
		if vs, ok := produced[0].(Values); ok {
			produced = vs
		}
	}

	if len(produced) != len(r.To) {
		return m.fail(r, fmt.Errorf("%w: %d values for %d fields", ErrValueCount, len(produced), len(r.To)))
	}

	for i, name := range r.To {
		if r.SkipIfNone && isNone(produced[i]) {
			continue
		}

		values[name] = produced[i]
	}

	return nil
}

func (m *Mapping) fail(r *CompiledRule, err error) error {
	return &ExecutionError{Pair: m.def.String(), Rule: r.String(), Err: err}
}

// collect turns the values produced by a to_list action into the field value.
// A single iterable value is materialized and several values become the list.
// A single value that is not iterable is stored as is.
func collect(produced []any) any {
	if len(produced) != 1 {
		return append([]any(nil), produced...)
	}

	v := produced[0]
	if isNone(v) {
		return nil
	}

	switch s := v.(type) {
	case []any:
		return append([]any{}, s...)
	case Values:
		return append([]any{}, s...)
	case iter.Seq[any]:
		out := []any{}
		for e := range s {
			out = append(out, e)
		}

		return out
	}

	if out, ok := materialize(reflect.ValueOf(v)); ok {
		return out
	}

	return v
}

// materialize reads every element of a slice, array, channel or iterator
// function. Strings and maps are not treated as sequences.
func materialize(rv reflect.Value) ([]any, bool) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out, true
	case reflect.Chan, reflect.Func:
		if !rv.Type().CanSeq() {
			return nil, false
		}

		out := []any{}
		for e := range rv.Seq() {
			out = append(out, e.Interface())
		}

		return out, true
	default:
		return nil, false
	}
}

// isNone reports whether v is the "no value" marker: nil or a nil pointer.
func isNone(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
