// Package types defines the value model, domain entities, identifiers and
// error taxonomy shared by the expression parser, the operator registry,
// the bytecode compiler/VM and the execution engine.
//
// Value is an immutable tagged union covering the JSON scalar types plus
// arbitrary-precision decimals. All engine code passes Values around; the
// only places raw JSON appears are the parser boundary and the store.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged union: Null, Bool, Int (int64), Float (float64),
// Decimal, String, Array or Object. The zero Value is Null.
//
// Values are treated as immutable: operators construct new Values rather
// than mutating operands, which is what makes sharing them across the
// worker pool safe without locks.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	d    decimal.Decimal
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Dec wraps a decimal.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a slice of Values. The slice is not copied; callers must not
// mutate it after handing it over.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Object wraps a map of Values. The map is not copied; callers must not
// mutate it after handing it over.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy implements JSON-Logic truthiness: null, false, 0, 0.0, zero
// decimal, "" and empty arrays/objects are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindDecimal:
		return !v.d.IsZero()
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	default:
		return false
	}
}

// AsBool returns the bool payload. ok is false for non-bool Values.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the integer payload. Floats with an integral value and
// integral decimals convert; everything else reports ok=false.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), true
		}
		return 0, false
	case KindDecimal:
		if v.d.IsInteger() {
			return v.d.IntPart(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat returns the numeric payload widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindDecimal:
		return v.d.InexactFloat64(), true
	default:
		return 0, false
	}
}

// AsDecimal returns the numeric payload as a decimal.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindFloat:
		return decimal.NewFromFloat(v.f), true
	case KindDecimal:
		return v.d, true
	default:
		return decimal.Decimal{}, false
	}
}

// AsString returns the string payload. ok is false for non-string Values.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsArray returns the array payload. ok is false for non-array Values.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsObject returns the object payload. ok is false for non-object Values.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// IsNumeric reports whether v is an Int, Float or Decimal.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindDecimal
}

// Equal is strict equality: same kind (with Int/Float/Decimal unified via
// exact numeric comparison only when kinds match), same payload. Arrays and
// objects compare element-wise.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDecimal:
		return v.d.Equal(o.d)
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, vv := range v.obj {
			ov, ok := o.obj[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v for error messages and logs. Not a wire format.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindDecimal:
		return v.d.String()
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "?"
	}
}

// MarshalJSON renders the Value as plain JSON. Decimals serialize as
// number literals to preserve precision end to end.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindDecimal:
		return []byte(v.d.String()), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return nil, fmt.Errorf("unmarshalable value kind %d", v.kind)
	}
}

// FromJSONNumber converts a json.Number into Int when the literal carries
// no fraction or exponent, Float otherwise. This preserves the int/float
// distinction that encoding/json's default float64 decoding loses.
func FromJSONNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err == nil {
			return Int(i), nil
		}
		// Out of int64 range; fall through to float.
	}
	f, err := n.Float64()
	if err != nil {
		return Null(), fmt.Errorf("invalid number literal %q: %w", s, err)
	}
	return Float(f), nil
}

// FromJSON converts a decoded JSON document (as produced by json.Decoder
// with UseNumber) into a Value.
func FromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return FromJSONNumber(x)
	case float64:
		// Decoded without UseNumber; integral floats stay Int.
		if x == float64(int64(x)) {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case string:
		return Str(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return Null(), err
			}
			arr[i] = v
		}
		return Array(arr...), nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := FromJSON(e)
			if err != nil {
				return Null(), err
			}
			obj[k] = v
		}
		return Object(obj), nil
	default:
		return Null(), fmt.Errorf("unsupported JSON value of type %T", raw)
	}
}

// ParseJSONValue decodes a single JSON document into a Value, preserving
// the int/float distinction via json.Number.
func ParseJSONValue(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), err
	}
	return FromJSON(raw)
}
