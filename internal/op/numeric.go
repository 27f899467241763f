package op

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

/*
Arithmetic follows a promotion ladder: int stays int, mixing in a decimal
promotes to decimal, mixing in a float promotes to float (float wins over
decimal because a float operand has already lost exactness). Division
always leaves the int domain: float/float normally, decimal/decimal when
either side is a decimal. Division and modulo by zero raise
ArithmeticError rather than returning null so the failure is attributable
to a rule instead of propagating silently.
*/

func registerArithmetic(r *Registry) {
	mustRegister(r, "+", Arity{Min: 1, Max: -1}, opAdd)
	mustRegister(r, "-", Arity{Min: 1, Max: -1}, opSub)
	mustRegister(r, "*", Arity{Min: 1, Max: -1}, foldNumeric("*", mulPair))
	mustRegister(r, "/", Arity{Min: 2, Max: -1}, foldNumeric("/", divPair))
	mustRegister(r, "%", Arity{Min: 2, Max: 2}, foldNumeric("%", modPair))
	mustRegister(r, "max", Arity{Min: 1, Max: -1}, opMax)
	mustRegister(r, "min", Arity{Min: 1, Max: -1}, opMin)
}

type numericDomain int

const (
	domainInt numericDomain = iota
	domainDecimal
	domainFloat
)

func promote(op string, a, b types.Value) (numericDomain, error) {
	if !a.IsNumeric() {
		return 0, &types.TypeMismatchError{Op: op, Want: "number", Got: a.Kind().String()}
	}
	if !b.IsNumeric() {
		return 0, &types.TypeMismatchError{Op: op, Want: "number", Got: b.Kind().String()}
	}
	if a.Kind() == types.KindFloat || b.Kind() == types.KindFloat {
		return domainFloat, nil
	}
	if a.Kind() == types.KindDecimal || b.Kind() == types.KindDecimal {
		return domainDecimal, nil
	}
	return domainInt, nil
}

func foldNumeric(op string, pair func(a, b types.Value) (types.Value, error)) Func {
	return func(args []types.Value) (types.Value, error) {
		acc := args[0]
		if !acc.IsNumeric() {
			return types.Null(), &types.TypeMismatchError{Op: op, Want: "number", Got: acc.Kind().String()}
		}
		for _, next := range args[1:] {
			v, err := pair(acc, next)
			if err != nil {
				return types.Null(), err
			}
			acc = v
		}
		return acc, nil
	}
}

// opAdd sums numbers; when any operand is a string the whole application
// degrades to concatenation of rendered operands. Null renders as the
// empty string there, not as the text "null".
func opAdd(args []types.Value) (types.Value, error) {
	anyString := false
	for _, a := range args {
		if a.Kind() == types.KindString {
			anyString = true
			break
		}
	}
	if anyString {
		var sb strings.Builder
		for _, a := range args {
			if a.IsNull() {
				continue
			}
			sb.WriteString(a.String())
		}
		return types.Str(sb.String()), nil
	}
	return foldNumeric("+", addPair)(args)
}

// opSub negates its single operand, otherwise folds subtraction.
func opSub(args []types.Value) (types.Value, error) {
	if len(args) == 1 {
		v := args[0]
		switch v.Kind() {
		case types.KindInt:
			i, _ := v.AsInt()
			return types.Int(-i), nil
		case types.KindFloat:
			f, _ := v.AsFloat()
			return types.Float(-f), nil
		case types.KindDecimal:
			d, _ := v.AsDecimal()
			return types.Dec(d.Neg()), nil
		default:
			return types.Null(), &types.TypeMismatchError{Op: "-", Want: "number", Got: v.Kind().String()}
		}
	}
	return foldNumeric("-", subPair)(args)
}

func addPair(a, b types.Value) (types.Value, error) {
	dom, err := promote("+", a, b)
	if err != nil {
		return types.Null(), err
	}
	switch dom {
	case domainInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return types.Int(x + y), nil
	case domainDecimal:
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return types.Dec(x.Add(y)), nil
	default:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return types.Float(x + y), nil
	}
}

func subPair(a, b types.Value) (types.Value, error) {
	dom, err := promote("-", a, b)
	if err != nil {
		return types.Null(), err
	}
	switch dom {
	case domainInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return types.Int(x - y), nil
	case domainDecimal:
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return types.Dec(x.Sub(y)), nil
	default:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return types.Float(x - y), nil
	}
}

func mulPair(a, b types.Value) (types.Value, error) {
	dom, err := promote("*", a, b)
	if err != nil {
		return types.Null(), err
	}
	switch dom {
	case domainInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return types.Int(x * y), nil
	case domainDecimal:
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return types.Dec(x.Mul(y)), nil
	default:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return types.Float(x * y), nil
	}
}

func divPair(a, b types.Value) (types.Value, error) {
	dom, err := promote("/", a, b)
	if err != nil {
		return types.Null(), err
	}
	if !b.Truthy() {
		return types.Null(), &types.ArithmeticError{Op: "/", Msg: "division by zero"}
	}
	if dom == domainDecimal {
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return types.Dec(x.Div(y)), nil
	}
	// Division leaves the int domain: 10 / 4 is 2.5, not 2.
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	return types.Float(x / y), nil
}

func modPair(a, b types.Value) (types.Value, error) {
	dom, err := promote("%", a, b)
	if err != nil {
		return types.Null(), err
	}
	if !b.Truthy() {
		return types.Null(), &types.ArithmeticError{Op: "%", Msg: "modulo by zero"}
	}
	switch dom {
	case domainInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return types.Int(x % y), nil
	case domainDecimal:
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return types.Dec(x.Mod(y)), nil
	default:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return types.Float(math.Mod(x, y)), nil
	}
}

func opMax(args []types.Value) (types.Value, error) {
	best := args[0]
	for _, next := range args[1:] {
		c, err := compareValues("max", next, best)
		if err != nil {
			return types.Null(), err
		}
		if c > 0 {
			best = next
		}
	}
	return best, nil
}

func opMin(args []types.Value) (types.Value, error) {
	best := args[0]
	for _, next := range args[1:] {
		c, err := compareValues("min", next, best)
		if err != nil {
			return types.Null(), err
		}
		if c < 0 {
			best = next
		}
	}
	return best, nil
}

// compareValues orders two Values: numbers cross-kind via the promotion
// ladder, strings lexicographically. Anything else is a TypeMismatchError.
func compareValues(op string, a, b types.Value) (int, error) {
	if a.Kind() == types.KindString && b.Kind() == types.KindString {
		x, _ := a.AsString()
		y, _ := b.AsString()
		return strings.Compare(x, y), nil
	}
	dom, err := promote(op, a, b)
	if err != nil {
		return 0, err
	}
	switch dom {
	case domainInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	case domainDecimal:
		x, _ := a.AsDecimal()
		y, _ := b.AsDecimal()
		return x.Cmp(y), nil
	default:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
}

// looseEquals implements the documented `==` coercion policy: nulls equal
// each other only, numbers compare cross-kind, a string against a number
// compares after numeric parse of the string, everything else is unequal.
// It never errors; incomparable operands are simply not equal.
func looseEquals(a, b types.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.IsNumeric() && b.IsNumeric() {
		c, err := compareValues("==", a, b)
		return err == nil && c == 0
	}
	if a.Kind() == types.KindString && b.IsNumeric() {
		return stringEqualsNumber(a, b)
	}
	if b.Kind() == types.KindString && a.IsNumeric() {
		return stringEqualsNumber(b, a)
	}
	return a.Equal(b)
}

func stringEqualsNumber(s, n types.Value) bool {
	str, _ := s.AsString()
	d, err := decimal.NewFromString(strings.TrimSpace(str))
	if err != nil {
		return false
	}
	nd, ok := n.AsDecimal()
	if !ok {
		return false
	}
	return d.Equal(nd)
}
