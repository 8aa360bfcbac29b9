package mapper

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"

	"schema-mapper/schema"
)

var (
	ErrActionNotAFunction = errors.New("action is not a function")
	ErrActionNoResult     = errors.New("action returns no value")
	ErrActionArity        = errors.New("action cannot accept the rule's arguments")
	ErrActionArgument     = errors.New("action argument type mismatch")
)

var (
	errorType   = reflect.TypeFor[error]()
	mappingType = reflect.TypeFor[*Mapping]()
)

// Values is a multi-value action result whose length is only known at run time.
// An action returning Values fills one destination field per element.
type Values []any

// Action is a function value validated once at compile time.
//
// Supported shapes:
//   - func(args...) T
//   - func(args...) (T1, T2, ...)
//   - func(args...) (T..., error)
//
// When the rule binds, the first parameter receives the *Mapping.
type Action struct {
	name    string
	fn      reflect.Value
	typ     reflect.Type
	results int
	hasErr  bool
}

// ParseAction inspects fn and returns an Action if it is a usable function.
func ParseAction(fn any) (*Action, error) {
	if fn == nil {
		return nil, ErrActionNotAFunction
	}

	if a, ok := fn.(*Action); ok {
		return a, nil
	}

	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func || fnVal.IsNil() {
		return nil, fmt.Errorf("%w: %s", ErrActionNotAFunction, fnType)
	}

	a := &Action{
		name: funcName(fnVal),
		fn:   fnVal,
		typ:  fnType,
	}

	a.results = fnType.NumOut()
	if a.results > 0 && fnType.Out(a.results-1) == errorType {
		a.hasErr = true
		a.results--
	}

	if a.results == 0 {
		return nil, fmt.Errorf("%w: %s", ErrActionNoResult, fnType)
	}

	return a, nil
}

// funcName derives a readable name from the function's symbol.
func funcName(fn reflect.Value) string {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return fn.Type().String()
	}

	name := path.Base(rf.Name())
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	return name
}

// Results returns the number of values the action produces, excluding error.
func (a *Action) Results() int {
	return a.results
}

// Accepts returns true if the action can be called with n arguments.
func (a *Action) Accepts(n int) bool {
	in := a.typ.NumIn()
	if a.typ.IsVariadic() {
		return n >= in-1
	}

	return n == in
}

// Binds returns true if the first parameter can receive a *Mapping.
func (a *Action) Binds() bool {
	return a.typ.NumIn() > 0 && mappingType.AssignableTo(a.typ.In(0))
}

// String returns the function's symbol name, or the name the action was
// registered under.
func (a *Action) String() string {
	return a.name
}

// call invokes the action; the returned slice never includes the error result.
func (a *Action) call(args []any) ([]any, error) {
	if !a.Accepts(len(args)) {
		return nil, fmt.Errorf("%w: %s called with %d arguments", ErrActionArity, a.typ, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := argValue(arg, a.paramType(i))
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d of %s: %w", ErrActionArgument, i, a.name, err)
		}

		in[i] = v
	}

	out := a.fn.Call(in)

	if a.hasErr {
		if errV := out[len(out)-1]; !errV.IsNil() {
			return nil, errV.Interface().(error)
		}

		out = out[:len(out)-1]
	}

	values := make([]any, len(out))
	for i, v := range out {
		values[i] = v.Interface()
	}

	return values, nil
}

func (a *Action) paramType(i int) reflect.Type {
	last := a.typ.NumIn() - 1
	if a.typ.IsVariadic() && i >= last {
		return a.typ.In(last).Elem()
	}

	return a.typ.In(i)
}

// argValue adapts one argument to a parameter type.
func argValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		if nillable(pt.Kind()) {
			return reflect.Zero(pt), nil
		}

		return reflect.Value{}, fmt.Errorf("nil passed as %s", pt)
	}

	v := reflect.ValueOf(arg)

	switch {
	case v.Type().AssignableTo(pt):
		return v, nil
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Type().AssignableTo(pt):
		return v.Elem(), nil
	case isNumber(v.Kind()) && isNumber(pt.Kind()):
		return schema.ConvertNumber(v, pt)
	}

	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), pt)
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
