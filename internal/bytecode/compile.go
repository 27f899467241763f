package bytecode

import (
	"github.com/ayushmaanbhav/product-farm-sub002/internal/expr"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

/*
Compilation strategy, mirrored by the tree interpreter:

  - if/and/or are control forms, not registry operators. They compile to
    JUMP_IF_FALSE/JUMP so unreached branches never execute, and and/or
    keep JSON-Logic value semantics (first falsy / first truthy operand,
    not a coerced bool) via DUP before the branch.
  - everything else compiles operands left to right followed by CALL_OP.

The variable table is populated up front from a left-to-right traversal,
and both literal and operator-name pools dedupe on first use, so a given
Expression always compiles to the identical Program.
*/

// Control forms handled by the compiler and the tree interpreter rather
// than the registry.
func isControl(name string) bool {
	return name == "if" || name == "and" || name == "or"
}

// Check validates an expression against a registry without emitting code:
// unknown operators and statically invalid operand counts are
// CompileErrors. The engine runs it once per rule before the rule is ever
// interpreted.
func Check(reg *op.Registry, e expr.Expression) error {
	switch x := e.(type) {
	case expr.Literal, expr.Variable:
		return nil
	case expr.Operator:
		if isControl(x.Name) {
			if (x.Name == "and" || x.Name == "or") && len(x.Operands) < 1 {
				return &types.CompileError{Op: x.Name, Msg: "needs at least one operand"}
			}
		} else if err := reg.CheckArity(x.Name, len(x.Operands)); err != nil {
			return err
		}
		for _, o := range x.Operands {
			if err := Check(reg, o); err != nil {
				return err
			}
		}
		return nil
	default:
		return &types.CompileError{Msg: "unknown expression node"}
	}
}

type compiler struct {
	reg     *op.Registry
	code    []Instruction
	lits    []types.Value
	vars    []string
	varIdx  map[string]int
	opNames []string
	opIdx   map[string]int
}

// Compile translates an expression into a Program. Validation failures
// surface as CompileError.
func Compile(reg *op.Registry, e expr.Expression) (*Program, error) {
	if err := Check(reg, e); err != nil {
		return nil, err
	}
	c := &compiler{
		reg:    reg,
		varIdx: make(map[string]int),
		opIdx:  make(map[string]int),
	}
	for _, path := range expr.CollectVariables(e) {
		c.varIdx[path] = len(c.vars)
		c.vars = append(c.vars, path)
	}
	c.compileNode(e)
	c.emit(Instruction{Op: OpReturn})
	return &Program{
		Code:      c.code,
		Literals:  c.lits,
		Variables: c.vars,
		OpNames:   c.opNames,
	}, nil
}

func (c *compiler) emit(ins Instruction) int {
	c.code = append(c.code, ins)
	return len(c.code) - 1
}

func (c *compiler) patch(at int, target int) {
	c.code[at].A = target
}

func (c *compiler) here() int { return len(c.code) }

func (c *compiler) literal(v types.Value) int {
	for i, l := range c.lits {
		if l.Kind() == v.Kind() && l.Equal(v) {
			return i
		}
	}
	c.lits = append(c.lits, v)
	return len(c.lits) - 1
}

func (c *compiler) opName(name string) int {
	if i, ok := c.opIdx[name]; ok {
		return i
	}
	c.opIdx[name] = len(c.opNames)
	c.opNames = append(c.opNames, name)
	return c.opIdx[name]
}

func (c *compiler) compileNode(e expr.Expression) {
	switch x := e.(type) {
	case expr.Literal:
		c.emit(Instruction{Op: OpPushLiteral, A: c.literal(x.Value)})
	case expr.Variable:
		idx := c.varIdx[x.Path]
		if x.Default != nil {
			c.emit(Instruction{Op: OpLoadVarDefault, A: idx, B: c.literal(*x.Default)})
		} else {
			c.emit(Instruction{Op: OpLoadVar, A: idx})
		}
	case expr.Operator:
		switch x.Name {
		case "if":
			c.compileIf(x.Operands)
		case "and":
			c.compileAnd(x.Operands)
		case "or":
			c.compileOr(x.Operands)
		default:
			for _, o := range x.Operands {
				c.compileNode(o)
			}
			c.emit(Instruction{Op: OpCallOp, A: c.opName(x.Name), B: len(x.Operands)})
		}
	}
}

// compileIf lowers condition/result pairs with an optional trailing else.
// A missing else yields null.
func (c *compiler) compileIf(operands []expr.Expression) {
	var endJumps []int
	i := 0
	for ; i+1 < len(operands); i += 2 {
		c.compileNode(operands[i])
		jf := c.emit(Instruction{Op: OpJumpIfFalse})
		c.compileNode(operands[i+1])
		endJumps = append(endJumps, c.emit(Instruction{Op: OpJump}))
		c.patch(jf, c.here())
	}
	if i < len(operands) {
		c.compileNode(operands[i])
	} else {
		c.emit(Instruction{Op: OpPushLiteral, A: c.literal(types.Null())})
	}
	for _, j := range endJumps {
		c.patch(j, c.here())
	}
}

// compileAnd yields the first falsy operand, or the last operand.
func (c *compiler) compileAnd(operands []expr.Expression) {
	var shorts []int
	for _, o := range operands[:len(operands)-1] {
		c.compileNode(o)
		c.emit(Instruction{Op: OpDup})
		shorts = append(shorts, c.emit(Instruction{Op: OpJumpIfFalse}))
		c.emit(Instruction{Op: OpPop})
	}
	c.compileNode(operands[len(operands)-1])
	end := c.here()
	for _, j := range shorts {
		// JUMP_IF_FALSE consumed the duplicate; the original falsy value
		// is still on the stack as the result.
		c.patch(j, end)
	}
}

// compileOr yields the first truthy operand, or the last operand.
func (c *compiler) compileOr(operands []expr.Expression) {
	var endJumps []int
	for _, o := range operands[:len(operands)-1] {
		c.compileNode(o)
		c.emit(Instruction{Op: OpDup})
		jf := c.emit(Instruction{Op: OpJumpIfFalse})
		endJumps = append(endJumps, c.emit(Instruction{Op: OpJump}))
		c.patch(jf, c.here())
		c.emit(Instruction{Op: OpPop})
	}
	c.compileNode(operands[len(operands)-1])
	end := c.here()
	for _, j := range endJumps {
		c.patch(j, end)
	}
}
