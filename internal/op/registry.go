// Package op implements the operator registry and the built-in operator
// set: arithmetic with numeric promotion, strict and loose comparison,
// logic, and the string/collection stdlib.
//
// Operators are pure functions over already-evaluated operand Values. The
// short-circuiting forms (if, and, or) are not registry operators; both
// evaluation tiers implement them natively so unevaluated branches are
// never touched.
package op

import (
	"fmt"
	"sort"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Func evaluates an operator over its operand values.
type Func func(args []types.Value) (types.Value, error)

// Arity bounds an operator's operand count. Max < 0 means variadic.
type Arity struct {
	Min int
	Max int
}

// Accepts reports whether n operands satisfy the arity.
func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max < 0 || n <= a.Max
}

type entry struct {
	arity Arity
	fn    Func
}

// Registry maps operator names to implementations. Not safe for concurrent
// registration; register everything before handing it to an engine.
type Registry struct {
	ops map[string]entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{ops: make(map[string]entry)}
}

// Default returns a registry with the full built-in operator set.
func Default() *Registry {
	r := New()
	registerArithmetic(r)
	registerComparison(r)
	registerLogic(r)
	registerStrings(r)
	registerCollections(r)
	return r
}

// Register adds an operator. Empty names and duplicates are rejected so a
// typo cannot silently shadow a built-in.
func (r *Registry) Register(name string, a Arity, fn Func) error {
	if name == "" {
		return fmt.Errorf("operator name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("operator %q: nil function", name)
	}
	if _, exists := r.ops[name]; exists {
		return fmt.Errorf("operator %q already registered", name)
	}
	r.ops[name] = entry{arity: a, fn: fn}
	return nil
}

// Lookup returns the operator's function and arity.
func (r *Registry) Lookup(name string) (Func, Arity, bool) {
	e, ok := r.ops[name]
	if !ok {
		return nil, Arity{}, false
	}
	return e.fn, e.arity, true
}

// CheckArity validates a static operand count against the registered
// arity. Unknown names and out-of-range counts are CompileErrors.
func (r *Registry) CheckArity(name string, n int) error {
	e, ok := r.ops[name]
	if !ok {
		return &types.CompileError{Op: name, Msg: "unknown operator"}
	}
	if !e.arity.Accepts(n) {
		return &types.CompileError{
			Op:  name,
			Msg: fmt.Sprintf("operand count %d outside arity [%d, %d]", n, e.arity.Min, e.arity.Max),
		}
	}
	return nil
}

// Names returns registered operator names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ops))
	for name := range r.ops {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func mustRegister(r *Registry, name string, a Arity, fn Func) {
	if err := r.Register(name, a, fn); err != nil {
		panic(err)
	}
}
