package schema

import (
	"fmt"
	"math"
	"reflect"
)

// ConvertNumber converts a numeric value to the numeric type t. It fails with
// ErrNotAssignable instead of truncating a fraction, wrapping around or
// changing sign. Integers convert to floats without checks.
func ConvertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !isNumberKind(v.Kind()) || !isNumberKind(t.Kind()) {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotAssignable, v.Type(), t)
	}

	out := reflect.New(t).Elem()
	lossy := func() (reflect.Value, error) {
		return reflect.Value{}, fmt.Errorf("%w: %v does not fit in %s", ErrNotAssignable, v, t)
	}

	switch {
	case v.CanInt():
		n := v.Int()

		switch {
		case out.CanInt():
			if out.OverflowInt(n) {
				return lossy()
			}

			out.SetInt(n)
		case out.CanUint():
			if n < 0 || out.OverflowUint(uint64(n)) {
				return lossy()
			}

			out.SetUint(uint64(n))
		default:
			out.SetFloat(float64(n))
		}

	case v.CanUint():
		n := v.Uint()

		switch {
		case out.CanInt():
			if n > math.MaxInt64 || out.OverflowInt(int64(n)) {
				return lossy()
			}

			out.SetInt(int64(n))
		case out.CanUint():
			if out.OverflowUint(n) {
				return lossy()
			}

			out.SetUint(n)
		default:
			out.SetFloat(float64(n))
		}

	default:
		f := v.Float()

		switch {
		case out.CanFloat():
			if out.OverflowFloat(f) {
				return lossy()
			}

			out.SetFloat(f)
		case math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f:
			return lossy()
		case out.CanInt():
			// 2^63 is the first float64 past MaxInt64.
			if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return lossy()
			}

			out.SetInt(int64(f))
		default:
			if f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return lossy()
			}

			out.SetUint(uint64(f))
		}
	}

	return out, nil
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
