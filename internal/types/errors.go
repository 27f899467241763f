package types

import (
	"fmt"
	"strings"
)

// Error taxonomy. Build-time errors (SyntaxError, CompileError,
// DuplicateOutputError, CyclicDependencyError) abort construction of a
// rule or plan; runtime errors (TypeMismatchError, ArithmeticError) are
// wrapped in EvaluationError and recovered per rule by the executor.

// SyntaxError reports malformed rule expression JSON or a structurally
// invalid expression (for example a multi-key object).
type SyntaxError struct {
	Msg   string
	Cause error
}

func (e *SyntaxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("syntax error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

// CompileError reports an unknown operator or a statically invalid operand
// count discovered while validating or compiling an expression.
type CompileError struct {
	Op  string
	Msg string
}

func (e *CompileError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("compile error in %q: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("compile error: %s", e.Msg)
}

// CyclicDependencyError reports a dependency cycle between rules. Chain is
// a deterministic witness path of attribute paths, first element repeated
// at the end to close the cycle.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Chain, " -> "))
}

// DuplicateOutputError reports two rules declaring the same output
// attribute path.
type DuplicateOutputError struct {
	Path    string
	RuleIDs [2]RuleID
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("duplicate output %q produced by rules %s and %s",
		e.Path, e.RuleIDs[0], e.RuleIDs[1])
}

// TypeMismatchError reports an operator applied to operands of the wrong
// kind.
type TypeMismatchError struct {
	Op   string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in %q: want %s, got %s", e.Op, e.Want, e.Got)
}

// ArithmeticError reports division or modulo by zero and similar numeric
// failures.
type ArithmeticError struct {
	Op  string
	Msg string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %q: %s", e.Op, e.Msg)
}

// EvaluationError wraps any error raised while evaluating a single rule,
// carrying the output attribute path and, when known, the operator that
// failed. The executor records it and continues with the remaining rules.
type EvaluationError struct {
	AttributePath string
	Operator      string
	Cause         error
}

func (e *EvaluationError) Error() string {
	if e.Operator != "" {
		return fmt.Sprintf("evaluation of %q failed in operator %q: %v",
			e.AttributePath, e.Operator, e.Cause)
	}
	return fmt.Sprintf("evaluation of %q failed: %v", e.AttributePath, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }
