package op

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func registerStrings(r *Registry) {
	mustRegister(r, "capitalize", Arity{Min: 1, Max: 1}, stringUnary("capitalize", capitalize))
	mustRegister(r, "lowercase", Arity{Min: 1, Max: 1}, stringUnary("lowercase", strings.ToLower))
	mustRegister(r, "uppercase", Arity{Min: 1, Max: 1}, stringUnary("uppercase", strings.ToUpper))
	mustRegister(r, "trim", Arity{Min: 1, Max: 1}, stringUnary("trim", strings.TrimSpace))
	mustRegister(r, "length", Arity{Min: 1, Max: 1}, opLength)
	mustRegister(r, "isBlank", Arity{Min: 1, Max: 1}, opIsBlank)
	mustRegister(r, "replace", Arity{Min: 3, Max: 3}, opReplace)
	mustRegister(r, "match", Arity{Min: 2, Max: 2}, opMatch)
	mustRegister(r, "toArray", Arity{Min: 1, Max: 1}, opToArray)
	mustRegister(r, "decimalFormat", Arity{Min: 2, Max: 2}, opDecimalFormat)
	mustRegister(r, "encode", Arity{Min: 1, Max: 1}, opEncode)
}

func stringUnary(op string, fn func(string) string) Func {
	return func(args []types.Value) (types.Value, error) {
		s, ok := args[0].AsString()
		if !ok {
			return types.Null(), &types.TypeMismatchError{Op: op, Want: "string", Got: args[0].Kind().String()}
		}
		return types.Str(fn(s)), nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// opLength counts runes of a string. Collections use `size`.
func opLength(args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "length", Want: "string", Got: args[0].Kind().String()}
	}
	return types.Int(int64(utf8.RuneCountInString(s))), nil
}

// opIsBlank is true for null and for strings that are empty or all
// whitespace.
func opIsBlank(args []types.Value) (types.Value, error) {
	if args[0].IsNull() {
		return types.Bool(true), nil
	}
	s, ok := args[0].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "isBlank", Want: "string or null", Got: args[0].Kind().String()}
	}
	return types.Bool(strings.TrimSpace(s) == ""), nil
}

func opReplace(args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "replace", Want: "string", Got: args[0].Kind().String()}
	}
	old, ok := args[1].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "replace", Want: "string", Got: args[1].Kind().String()}
	}
	new_, ok := args[2].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "replace", Want: "string", Got: args[2].Kind().String()}
	}
	return types.Str(strings.ReplaceAll(s, old, new_)), nil
}

// opMatch tests a string against an RE2 pattern. RE2 has no backtracking,
// so pathological patterns cannot stall a worker.
func opMatch(args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "match", Want: "string", Got: args[0].Kind().String()}
	}
	pattern, ok := args[1].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "match", Want: "string", Got: args[1].Kind().String()}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return types.Null(), fmt.Errorf("match: invalid pattern %q: %w", pattern, err)
	}
	return types.Bool(re.MatchString(s)), nil
}

// opToArray wraps a value: null becomes the empty array, arrays pass
// through, anything else becomes a one-element array.
func opToArray(args []types.Value) (types.Value, error) {
	v := args[0]
	switch {
	case v.IsNull():
		return types.Array(), nil
	case v.Kind() == types.KindArray:
		return v, nil
	default:
		return types.Array(v), nil
	}
}

// maxDecimalPlaces bounds decimalFormat output size; operators must stay
// cheap no matter what a rule asks for.
const maxDecimalPlaces = 64

// opDecimalFormat renders a number with a fixed count of fraction digits,
// rounding half away from zero.
func opDecimalFormat(args []types.Value) (types.Value, error) {
	if !args[0].IsNumeric() {
		return types.Null(), &types.TypeMismatchError{Op: "decimalFormat", Want: "number", Got: args[0].Kind().String()}
	}
	places, ok := args[1].AsInt()
	if !ok || places < 0 || places > maxDecimalPlaces {
		return types.Null(), &types.TypeMismatchError{
			Op:   "decimalFormat",
			Want: fmt.Sprintf("int in [0, %d]", maxDecimalPlaces),
			Got:  args[1].String(),
		}
	}
	d, _ := args[0].AsDecimal()
	return types.Str(d.StringFixed(int32(places))), nil
}

// opEncode base64-encodes a string (standard alphabet, padded).
func opEncode(args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "encode", Want: "string", Got: args[0].Kind().String()}
	}
	return types.Str(base64.StdEncoding.EncodeToString([]byte(s))), nil
}
