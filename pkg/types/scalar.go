// SPDX-License-Identifier: MPL-2.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNonScalarValue is the sentinel error wrapped by NonScalarValueError.
var ErrNonScalarValue = errors.New("non-scalar parameter value")

// NonScalarValueError is returned when a parameter value is an object, an
// array or another non-scalar Go value.
type NonScalarValueError struct {
	Value any
}

// Error implements the error interface for NonScalarValueError.
func (e *NonScalarValueError) Error() string {
	return fmt.Sprintf("parameter values must be strings, numbers, booleans or null (got %T)", e.Value)
}

// Unwrap returns ErrNonScalarValue for errors.Is() compatibility.
func (e *NonScalarValueError) Unwrap() error { return ErrNonScalarValue }

// NormalizeScalar maps a parameter value to its canonical Go representation:
// nil, bool, string, int64 (for every integral number, whatever its source
// type) or float64. Values decoded from JSON, CUE or the command line thereby
// compare equal when they denote the same scalar.
func NormalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return normalizeUint(uint64(x), v)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return normalizeUint(x, v)
	case float32:
		return normalizeFloat(float64(x)), nil
	case float64:
		return normalizeFloat(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, &NonScalarValueError{Value: v}
		}
		return normalizeFloat(f), nil
	default:
		return nil, &NonScalarValueError{Value: v}
	}
}

// NormalizeScalars applies NormalizeScalar to every value of m. It returns a
// new map; m is not modified.
func NormalizeScalars(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		n, err := NormalizeScalar(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func normalizeUint(u uint64, orig any) (any, error) {
	if u > math.MaxInt64 {
		return nil, &NonScalarValueError{Value: orig}
	}
	return int64(u), nil
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
