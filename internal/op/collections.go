package op

import (
	"sort"
	"strings"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func registerCollections(r *Registry) {
	mustRegister(r, "size", Arity{Min: 1, Max: 1}, opSize)
	mustRegister(r, "sort", Arity{Min: 1, Max: 1}, opSort)
	mustRegister(r, "distinct", Arity{Min: 1, Max: 1}, opDistinct)
	mustRegister(r, "joinToString", Arity{Min: 2, Max: 2}, opJoinToString)
	mustRegister(r, "drop", Arity{Min: 2, Max: 2}, opDrop)
	mustRegister(r, "reverse", Arity{Min: 1, Max: 1}, opReverse)
	mustRegister(r, "find", Arity{Min: 2, Max: 2}, opFind)
}

// opSize counts elements of an array or object, or runes of a string.
func opSize(args []types.Value) (types.Value, error) {
	v := args[0]
	if arr, ok := v.AsArray(); ok {
		return types.Int(int64(len(arr))), nil
	}
	if obj, ok := v.AsObject(); ok {
		return types.Int(int64(len(obj))), nil
	}
	if v.Kind() == types.KindString {
		return opLength(args)
	}
	return types.Null(), &types.TypeMismatchError{Op: "size", Want: "array, object or string", Got: v.Kind().String()}
}

// opSort orders an array ascending. Elements must be mutually comparable
// (all numbers or all strings); a stable sort keeps equal elements in
// input order.
func opSort(args []types.Value) (types.Value, error) {
	arr, ok := args[0].AsArray()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "sort", Want: "array", Got: args[0].Kind().String()}
	}
	out := make([]types.Value, len(arr))
	copy(out, arr)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := compareValues("sort", out[i], out[j])
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return types.Null(), sortErr
	}
	return types.Array(out...), nil
}

// opDistinct drops duplicates, keeping first occurrences in order.
func opDistinct(args []types.Value) (types.Value, error) {
	arr, ok := args[0].AsArray()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "distinct", Want: "array", Got: args[0].Kind().String()}
	}
	out := make([]types.Value, 0, len(arr))
	for _, v := range arr {
		dup := false
		for _, seen := range out {
			if v.Equal(seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return types.Array(out...), nil
}

func opJoinToString(args []types.Value) (types.Value, error) {
	arr, ok := args[0].AsArray()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "joinToString", Want: "array", Got: args[0].Kind().String()}
	}
	sep, ok := args[1].AsString()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "joinToString", Want: "string separator", Got: args[1].Kind().String()}
	}
	parts := make([]string, len(arr))
	for i, v := range arr {
		parts[i] = v.String()
	}
	return types.Str(strings.Join(parts, sep)), nil
}

// opDrop removes the first n elements; n past the end yields the empty
// array, negative n is rejected.
func opDrop(args []types.Value) (types.Value, error) {
	arr, ok := args[0].AsArray()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "drop", Want: "array", Got: args[0].Kind().String()}
	}
	n, ok := args[1].AsInt()
	if !ok || n < 0 {
		return types.Null(), &types.TypeMismatchError{Op: "drop", Want: "non-negative int", Got: args[1].String()}
	}
	if n >= int64(len(arr)) {
		return types.Array(), nil
	}
	out := make([]types.Value, len(arr)-int(n))
	copy(out, arr[n:])
	return types.Array(out...), nil
}

// opReverse reverses an array or a string (by rune).
func opReverse(args []types.Value) (types.Value, error) {
	if arr, ok := args[0].AsArray(); ok {
		out := make([]types.Value, len(arr))
		for i, v := range arr {
			out[len(arr)-1-i] = v
		}
		return types.Array(out...), nil
	}
	if s, ok := args[0].AsString(); ok {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return types.Str(string(runes)), nil
	}
	return types.Null(), &types.TypeMismatchError{Op: "reverse", Want: "array or string", Got: args[0].Kind().String()}
}

// opFind returns the first element strictly equal to the needle, or null.
func opFind(args []types.Value) (types.Value, error) {
	arr, ok := args[0].AsArray()
	if !ok {
		return types.Null(), &types.TypeMismatchError{Op: "find", Want: "array", Got: args[0].Kind().String()}
	}
	for _, v := range arr {
		if v.Equal(args[1]) {
			return v, nil
		}
	}
	return types.Null(), nil
}
