package canonical

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the types a ledger record may contain.
// Only String, Int, Bool, Array, and Object implement it. There is no
// float type - floats are forbidden because their formatting is not
// stable across encoders, which would break byte-determinism.
type Value interface {
	canonicalValue() // sealed
}

// String represents a JSON string value.
type String string

func (String) canonicalValue() {}

// Int represents a JSON integer value. Always int64, never float64.
type Int int64

func (Int) canonicalValue() {}

// Bool represents a JSON boolean value.
type Bool bool

func (Bool) canonicalValue() {}

// Array represents an ordered list of values.
type Array []Value

func (Array) canonicalValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonicalValue() {}

// SortedKeys returns the object's keys in RFC 8785 canonical order
// (UTF-16 code units). Go's sort.Strings compares UTF-8 bytes, which
// produces a DIFFERENT order for keys outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings by UTF-16 code units as required by
// RFC 8785. utf16.Encode handles surrogate pairs correctly.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// FromGo converts a plain Go value (as produced by encoding/json with
// UseNumber) into a Value. Floats and nulls are rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical values")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q is forbidden in canonical values", val.String())
		}
		return Int(n), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical values: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical value: %T", v)
	}
}
