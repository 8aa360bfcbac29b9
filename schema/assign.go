package schema

import (
	"fmt"
	"reflect"
)

// Assign stores val into dst, adapting between the representations the mapper
// produces and the declared Go type of dst:
//
//   - nil clears dst to its zero value
//   - *T is dereferenced into T, T is copied into a new *T
//   - []any (and other slices/arrays) are converted element by element
//   - numbers are converted when the value fits the destination type exactly
//     (see ConvertNumber); string and bool kinds convert between named types
func Assign(dst reflect.Value, val any) error {
	if val == nil {
		dst.SetZero()
		return nil
	}

	return assignValue(dst, reflect.ValueOf(val))
}

func assignValue(dst, src reflect.Value) error {
	for src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}

		src = src.Elem()
	}

	st, dt := src.Type(), dst.Type()

	switch {
	case st.AssignableTo(dt):
		dst.Set(src)
		return nil

	case dt.Kind() == reflect.Interface:
		if st.Implements(dt) {
			dst.Set(src)
			return nil
		}

	case src.Kind() == reflect.Pointer && dt.Kind() != reflect.Pointer:
		if src.IsNil() {
			dst.SetZero()
			return nil
		}

		return assignValue(dst, src.Elem())

	case dt.Kind() == reflect.Pointer && src.Kind() != reflect.Pointer:
		p := reflect.New(dt.Elem())
		if err := assignValue(p.Elem(), src); err != nil {
			return err
		}

		dst.Set(p)

		return nil

	case isSequence(src.Kind()) && (dt.Kind() == reflect.Slice || dt.Kind() == reflect.Array):
		return assignSequence(dst, src)

	case isNumberKind(st.Kind()) && isNumberKind(dt.Kind()):
		v, err := ConvertNumber(src, dt)
		if err != nil {
			return err
		}

		dst.Set(v)

		return nil

	case convertible(st, dt):
		dst.Set(src.Convert(dt))
		return nil
	}

	return fmt.Errorf("%w: %s to %s", ErrNotAssignable, st, dt)
}

func assignSequence(dst, src reflect.Value) error {
	n := src.Len()

	out := dst
	if dst.Kind() == reflect.Slice {
		if src.Kind() == reflect.Slice && src.IsNil() {
			dst.SetZero()
			return nil
		}

		out = reflect.MakeSlice(dst.Type(), n, n)
	} else if n > dst.Len() {
		return fmt.Errorf("%w: %d elements into %s", ErrNotAssignable, n, dst.Type())
	}

	for i := range n {
		if err := assignValue(out.Index(i), src.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}

	if dst.Kind() == reflect.Slice {
		dst.Set(out)
	}

	return nil
}

func isSequence(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

// convertible rejects integer -> string conversions, which yield runes.
func convertible(st, dt reflect.Type) bool {
	if !st.ConvertibleTo(dt) {
		return false
	}

	if dt.Kind() == reflect.String {
		return st.Kind() == reflect.String
	}

	return isScalarKind(st.Kind()) && isScalarKind(dt.Kind())
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
