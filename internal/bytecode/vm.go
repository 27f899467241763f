package bytecode

import (
	"fmt"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Execute runs a program against pre-resolved variable values. vars must
// be parallel to p.Variables; unresolved paths pass null. Operator errors
// (TypeMismatchError, ArithmeticError, ...) propagate unwrapped so the
// caller can attribute them.
func Execute(p *Program, reg *op.Registry, vars []types.Value) (types.Value, error) {
	if len(vars) != len(p.Variables) {
		return types.Null(), fmt.Errorf("variable slice length %d, program expects %d", len(vars), len(p.Variables))
	}
	stack := make([]types.Value, 0, 16)
	push := func(v types.Value) error {
		if len(stack) >= types.MaxStackDepth {
			return fmt.Errorf("stack depth exceeds %d", types.MaxStackDepth)
		}
		stack = append(stack, v)
		return nil
	}

	pc := 0
	for pc < len(p.Code) {
		ins := p.Code[pc]
		switch ins.Op {
		case OpPushLiteral:
			if err := push(p.Literals[ins.A]); err != nil {
				return types.Null(), err
			}
			pc++
		case OpLoadVar:
			if err := push(vars[ins.A]); err != nil {
				return types.Null(), err
			}
			pc++
		case OpLoadVarDefault:
			v := vars[ins.A]
			if v.IsNull() {
				v = p.Literals[ins.B]
			}
			if err := push(v); err != nil {
				return types.Null(), err
			}
			pc++
		case OpCallOp:
			n := ins.B
			if len(stack) < n {
				return types.Null(), fmt.Errorf("stack underflow in %s", p.OpNames[ins.A])
			}
			args := stack[len(stack)-n:]
			fn, _, ok := reg.Lookup(p.OpNames[ins.A])
			if !ok {
				// Registry changed since compile; treat as compile-grade failure.
				return types.Null(), &types.CompileError{Op: p.OpNames[ins.A], Msg: "unknown operator"}
			}
			v, err := fn(args)
			if err != nil {
				return types.Null(), err
			}
			stack = stack[:len(stack)-n]
			stack = append(stack, v)
			pc++
		case OpJump:
			pc = ins.A
		case OpJumpIfFalse:
			if len(stack) == 0 {
				return types.Null(), fmt.Errorf("stack underflow in JUMP_IF_FALSE")
			}
			cond := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !cond.Truthy() {
				pc = ins.A
			} else {
				pc++
			}
		case OpDup:
			if len(stack) == 0 {
				return types.Null(), fmt.Errorf("stack underflow in DUP")
			}
			if err := push(stack[len(stack)-1]); err != nil {
				return types.Null(), err
			}
			pc++
		case OpPop:
			if len(stack) == 0 {
				return types.Null(), fmt.Errorf("stack underflow in POP")
			}
			stack = stack[:len(stack)-1]
			pc++
		case OpReturn:
			if len(stack) != 1 {
				return types.Null(), fmt.Errorf("RETURN with stack depth %d, want 1", len(stack))
			}
			return stack[0], nil
		default:
			return types.Null(), fmt.Errorf("illegal opcode %d at %d", ins.Op, pc)
		}
	}
	return types.Null(), fmt.Errorf("program ended without RETURN")
}
