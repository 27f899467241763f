// Package bytecode compiles Expression trees into flat stack-machine
// programs and executes them. Compilation is deterministic: structurally
// identical expressions produce identical programs, which is what lets
// the engine key caches on expression hashes.
package bytecode

import (
	"fmt"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// OpCode enumerates the instruction set.
type OpCode uint8

const (
	// OpPushLiteral pushes Literals[A].
	OpPushLiteral OpCode = iota
	// OpLoadVar pushes the caller-resolved value of Variables[A].
	OpLoadVar
	// OpLoadVarDefault pushes Variables[A], substituting Literals[B] when
	// the resolved value is null.
	OpLoadVarDefault
	// OpCallOp pops B operands and pushes OpNames[A] applied to them.
	OpCallOp
	// OpJump continues at absolute index A.
	OpJump
	// OpJumpIfFalse pops a value and jumps to A when it is falsy.
	OpJumpIfFalse
	// OpDup duplicates the top of stack.
	OpDup
	// OpPop discards the top of stack.
	OpPop
	// OpReturn ends execution; the single remaining stack value is the
	// result.
	OpReturn
)

func (o OpCode) String() string {
	switch o {
	case OpPushLiteral:
		return "PUSH_LITERAL"
	case OpLoadVar:
		return "LOAD_VAR"
	case OpLoadVarDefault:
		return "LOAD_VAR_DEFAULT"
	case OpCallOp:
		return "CALL_OP"
	case OpJump:
		return "JUMP"
	case OpJumpIfFalse:
		return "JUMP_IF_FALSE"
	case OpDup:
		return "DUP"
	case OpPop:
		return "POP"
	case OpReturn:
		return "RETURN"
	default:
		return fmt.Sprintf("OP(%d)", uint8(o))
	}
}

// Instruction is one VM step. A and B are opcode-specific operands
// (pool indexes, jump targets, arities).
type Instruction struct {
	Op OpCode
	A  int
	B  int
}

// Program is a compiled expression: code plus the constant pool, the
// ordered variable table (resolution order for the caller) and the
// operator-name pool.
type Program struct {
	Code      []Instruction
	Literals  []types.Value
	Variables []string
	OpNames   []string
}

// Disassemble renders the program for debugging and golden tests.
func (p *Program) Disassemble() string {
	out := ""
	for i, ins := range p.Code {
		out += fmt.Sprintf("%04d %s", i, ins.Op)
		switch ins.Op {
		case OpPushLiteral:
			out += fmt.Sprintf(" %v", p.Literals[ins.A])
		case OpLoadVar:
			out += fmt.Sprintf(" %s", p.Variables[ins.A])
		case OpLoadVarDefault:
			out += fmt.Sprintf(" %s default=%v", p.Variables[ins.A], p.Literals[ins.B])
		case OpCallOp:
			out += fmt.Sprintf(" %s/%d", p.OpNames[ins.A], ins.B)
		case OpJump, OpJumpIfFalse:
			out += fmt.Sprintf(" -> %04d", ins.A)
		}
		out += "\n"
	}
	return out
}

// Equal reports structural equality of two programs.
func (p *Program) Equal(o *Program) bool {
	if len(p.Code) != len(o.Code) || len(p.Literals) != len(o.Literals) ||
		len(p.Variables) != len(o.Variables) || len(p.OpNames) != len(o.OpNames) {
		return false
	}
	for i := range p.Code {
		if p.Code[i] != o.Code[i] {
			return false
		}
	}
	for i := range p.Literals {
		if !p.Literals[i].Equal(o.Literals[i]) {
			return false
		}
	}
	for i := range p.Variables {
		if p.Variables[i] != o.Variables[i] {
			return false
		}
	}
	for i := range p.OpNames {
		if p.OpNames[i] != o.OpNames[i] {
			return false
		}
	}
	return true
}
