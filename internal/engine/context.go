// Package engine evaluates a product's rules: it compiles them through a
// two-tier evaluator (tree interpreter, promoted to the bytecode VM by
// observed eval count), schedules them over a dependency DAG in parallel
// levels, and analyzes attribute impact. The engine performs no I/O; it
// operates on in-memory Product definitions.
package engine

import (
	"strconv"
	"strings"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Resolver resolves attribute paths to values during evaluation.
type Resolver interface {
	Resolve(path string) (types.Value, bool)
}

// Context holds the values a single evaluation runs against: the caller's
// input attributes plus attributes computed by earlier levels. Computed
// values are committed between levels only, so reads during a level need
// no locking.
type Context struct {
	inputs   map[string]types.Value
	computed map[string]types.Value
}

// NewContext seeds an evaluation context with input attribute values.
func NewContext(inputs map[string]types.Value) *Context {
	in := make(map[string]types.Value, len(inputs))
	for k, v := range inputs {
		in[k] = v
	}
	return &Context{
		inputs:   in,
		computed: make(map[string]types.Value),
	}
}

// Resolve returns the value at path. Computed values shadow inputs. A path
// that misses exactly is retried as a dotted traversal into a structured
// value ("loan.amount" reaching into an object stored at "loan").
func (c *Context) Resolve(path string) (types.Value, bool) {
	if v, ok := c.computed[path]; ok {
		return v, true
	}
	if v, ok := c.inputs[path]; ok {
		return v, true
	}
	return c.traverse(path)
}

func (c *Context) traverse(path string) (types.Value, bool) {
	segs := strings.Split(path, ".")
	for i := len(segs) - 1; i >= 1; i-- {
		prefix := strings.Join(segs[:i], ".")
		base, ok := c.computed[prefix]
		if !ok {
			base, ok = c.inputs[prefix]
		}
		if !ok {
			continue
		}
		if v, ok := navigate(base, segs[i:]); ok {
			return v, true
		}
		return types.Null(), false
	}
	return types.Null(), false
}

func navigate(v types.Value, segs []string) (types.Value, bool) {
	cur := v
	for _, seg := range segs {
		if obj, ok := cur.AsObject(); ok {
			next, ok := obj[seg]
			if !ok {
				return types.Null(), false
			}
			cur = next
			continue
		}
		if arr, ok := cur.AsArray(); ok {
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(arr) {
				return types.Null(), false
			}
			cur = arr[idx]
			continue
		}
		return types.Null(), false
	}
	return cur, true
}

// set records a computed attribute. Callers commit between levels; the
// DAG builder has already rejected duplicate producers.
func (c *Context) set(path string, v types.Value) {
	c.computed[path] = v
}

// Computed returns a copy of the attributes produced so far.
func (c *Context) Computed() map[string]types.Value {
	out := make(map[string]types.Value, len(c.computed))
	for k, v := range c.computed {
		out[k] = v
	}
	return out
}
