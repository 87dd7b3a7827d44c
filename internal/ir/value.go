package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing constrained value types.
// Only IRString, IRInt, IRBool, IRArray, and IRObject implement this.
// NO IRFloat - game state carries no fractional values.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64, never float64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Kind classifies the scalar value types a snapshot field can hold.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// KindOf returns the scalar kind of v, or KindInvalid for arrays, objects
// and nil.
func KindOf(v IRValue) Kind {
	switch v.(type) {
	case IRInt:
		return KindInt
	case IRBool:
		return KindBool
	case IRString:
		return KindString
	default:
		return KindInvalid
	}
}

// Equal reports whether a and b hold the same type and the same value.
// There is no numeric coercion: IRInt(1) and IRBool(true) are not equal.
func Equal(a, b IRValue) bool {
	switch av := a.(type) {
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	default:
		return false
	}
}

// FromAny converts a decoded Go scalar (from YAML, JSON or CUE) into an
// IRValue. Integral floats are accepted because some decoders produce them
// for plain integers; fractional floats are rejected.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return IRInt(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("floats not allowed: %v", val)
		}
		return IRInt(int64(val)), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats not allowed: %s", val)
		}
		return IRInt(i), nil
	case nil:
		return nil, fmt.Errorf("null is not a valid value")
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a scalar IRValue back into a plain Go value for encoders.
func ToAny(v IRValue) any {
	switch val := v.(type) {
	case IRInt:
		return int64(val)
	case IRBool:
		return bool(val)
	case IRString:
		return string(val)
	default:
		return nil
	}
}

// Format renders a scalar the way it is written in a trigger expression.
func Format(v IRValue) string {
	switch val := v.(type) {
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRString:
		return strconv.Quote(string(val))
	default:
		return "<invalid>"
	}
}

// UnmarshalIRValue decodes a JSON scalar, rejecting floats and null.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return IRString(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return IRBool(b), nil

	case 'n':
		return nil, fmt.Errorf("null is not a valid value")

	case '[', '{':
		return nil, fmt.Errorf("only scalar values are allowed: %s", string(data))

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats not allowed: %s", string(data))
		}
		return IRInt(i), nil
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj IRObject) SortedKeys() []string {
	return sortedKeys(obj)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
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
