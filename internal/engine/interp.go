package engine

import (
	"github.com/ayushmaanbhav/product-farm-sub002/internal/expr"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Interpret walks an expression tree directly (tier 0). It must agree
// with compiling the same expression and running the VM; the control
// forms below mirror the compiler's branch lowering exactly, including
// short-circuit behavior and and/or value semantics.
func Interpret(reg *op.Registry, e expr.Expression, r Resolver) (types.Value, error) {
	switch x := e.(type) {
	case expr.Literal:
		return x.Value, nil
	case expr.Variable:
		v, ok := r.Resolve(x.Path)
		if !ok {
			v = types.Null()
		}
		if v.IsNull() && x.Default != nil {
			return *x.Default, nil
		}
		return v, nil
	case expr.Operator:
		switch x.Name {
		case "if":
			return interpretIf(reg, x.Operands, r)
		case "and":
			return interpretAnd(reg, x.Operands, r)
		case "or":
			return interpretOr(reg, x.Operands, r)
		default:
			fn, _, ok := reg.Lookup(x.Name)
			if !ok {
				return types.Null(), &types.CompileError{Op: x.Name, Msg: "unknown operator"}
			}
			args := make([]types.Value, len(x.Operands))
			for i, o := range x.Operands {
				v, err := Interpret(reg, o, r)
				if err != nil {
					return types.Null(), err
				}
				args[i] = v
			}
			return fn(args)
		}
	default:
		return types.Null(), &types.CompileError{Msg: "unknown expression node"}
	}
}

func interpretIf(reg *op.Registry, operands []expr.Expression, r Resolver) (types.Value, error) {
	i := 0
	for ; i+1 < len(operands); i += 2 {
		cond, err := Interpret(reg, operands[i], r)
		if err != nil {
			return types.Null(), err
		}
		if cond.Truthy() {
			return Interpret(reg, operands[i+1], r)
		}
	}
	if i < len(operands) {
		return Interpret(reg, operands[i], r)
	}
	return types.Null(), nil
}

func interpretAnd(reg *op.Registry, operands []expr.Expression, r Resolver) (types.Value, error) {
	var last types.Value
	for _, o := range operands {
		v, err := Interpret(reg, o, r)
		if err != nil {
			return types.Null(), err
		}
		if !v.Truthy() {
			return v, nil
		}
		last = v
	}
	return last, nil
}

func interpretOr(reg *op.Registry, operands []expr.Expression, r Resolver) (types.Value, error) {
	var last types.Value
	for _, o := range operands {
		v, err := Interpret(reg, o, r)
		if err != nil {
			return types.Null(), err
		}
		if v.Truthy() {
			return v, nil
		}
		last = v
	}
	return last, nil
}
