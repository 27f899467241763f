// Package expr parses JSON-Logic expression documents into an Expression
// tree and provides canonical hashing and variable collection over it.
//
// The grammar is structural: a one-key object is either a variable
// reference ({"var": ...}) or an operator application; arrays in operand
// position are operand lists; scalars are literals. Operator names are not
// validated here; that is deferred to compile time so the parser stays
// independent of the registry.
package expr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Expression is one node of a parsed rule expression.
type Expression interface {
	isExpression()
}

// Literal is a constant value.
type Literal struct {
	Value types.Value
}

// Variable references an attribute path in the evaluation context, with an
// optional default used when the path is missing or null.
type Variable struct {
	Path    string
	Default *types.Value
}

// Operator applies a named operator to ordered operands.
type Operator struct {
	Name     string
	Operands []Expression
}

func (Literal) isExpression()  {}
func (Variable) isExpression() {}
func (Operator) isExpression() {}

// CollectVariables returns the distinct variable paths of e in first
// occurrence order of a left-to-right traversal. The compiler uses this
// order for the program's variable table, which keeps compilation
// deterministic.
func CollectVariables(e Expression) []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(Expression)
	walk = func(n Expression) {
		switch x := n.(type) {
		case Literal:
		case Variable:
			if _, ok := seen[x.Path]; !ok {
				seen[x.Path] = struct{}{}
				out = append(out, x.Path)
			}
		case Operator:
			for _, o := range x.Operands {
				walk(o)
			}
		}
	}
	walk(e)
	return out
}

// Hash returns a hex SHA-256 over a canonical encoding of e. Structurally
// identical expressions hash identically; the engine keys compiled rules
// and rule-set hashes on it.
func Hash(e Expression) string {
	h := sha256.New()
	var buf []byte
	buf = appendExpr(buf, e)
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

func appendExpr(b []byte, e Expression) []byte {
	switch x := e.(type) {
	case Literal:
		b = append(b, 'L')
		b = appendValue(b, x.Value)
	case Variable:
		b = append(b, 'V')
		b = appendString(b, x.Path)
		if x.Default != nil {
			b = append(b, 'D')
			b = appendValue(b, *x.Default)
		}
	case Operator:
		b = append(b, 'O')
		b = appendString(b, x.Name)
		b = binary.BigEndian.AppendUint32(b, uint32(len(x.Operands)))
		for _, o := range x.Operands {
			b = appendExpr(b, o)
		}
	}
	return b
}

func appendValue(b []byte, v types.Value) []byte {
	b = append(b, byte(v.Kind()))
	switch v.Kind() {
	case types.KindNull:
	case types.KindBool:
		x, _ := v.AsBool()
		if x {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	case types.KindInt:
		x, _ := v.AsInt()
		b = binary.BigEndian.AppendUint64(b, uint64(x))
	case types.KindFloat:
		x, _ := v.AsFloat()
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(x))
	case types.KindDecimal:
		d, _ := v.AsDecimal()
		b = appendString(b, d.String())
	case types.KindString:
		s, _ := v.AsString()
		b = appendString(b, s)
	case types.KindArray:
		arr, _ := v.AsArray()
		b = binary.BigEndian.AppendUint32(b, uint32(len(arr)))
		for _, e := range arr {
			b = appendValue(b, e)
		}
	case types.KindObject:
		obj, _ := v.AsObject()
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b = binary.BigEndian.AppendUint32(b, uint32(len(keys)))
		for _, k := range keys {
			b = appendString(b, k)
			b = appendValue(b, obj[k])
		}
	}
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
