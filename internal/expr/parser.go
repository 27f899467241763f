package expr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Parse decodes a JSON-Logic document into an Expression.
//
// Structural rules:
//   - {"var": "path"} and {"var": ["path", default]} become Variable nodes;
//     dotted and colon-separated paths are kept verbatim and resolved at
//     evaluation time.
//   - any other one-key object becomes an Operator node; the single value
//     is the operand list (an array spreads into operands, anything else is
//     a single operand).
//   - arrays become literal arrays; inside an operator's value position the
//     array is the operand list instead.
//   - scalars become Literals.
//   - multi-key objects and malformed JSON fail with SyntaxError.
func Parse(data []byte) (Expression, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &types.SyntaxError{Msg: "malformed JSON", Cause: err}
	}
	// Trailing content after the document is as malformed as bad JSON.
	if dec.More() {
		return nil, &types.SyntaxError{Msg: "trailing content after expression"}
	}
	return parseNode(raw, 0)
}

func parseNode(raw any, depth int) (Expression, error) {
	if depth > types.MaxExpressionDepth {
		return nil, &types.SyntaxError{
			Msg: fmt.Sprintf("expression exceeds maximum depth %d", types.MaxExpressionDepth),
		}
	}
	switch x := raw.(type) {
	case map[string]any:
		if len(x) != 1 {
			return nil, &types.SyntaxError{
				Msg: fmt.Sprintf("expected one-key object, got %d keys", len(x)),
			}
		}
		for key, operands := range x {
			if key == "var" {
				return parseVar(operands)
			}
			return parseOperator(key, operands, depth)
		}
		return nil, nil // unreachable
	case []any:
		v, err := types.FromJSON(x)
		if err != nil {
			return nil, &types.SyntaxError{Msg: "invalid literal array", Cause: err}
		}
		return Literal{Value: v}, nil
	default:
		v, err := types.FromJSON(x)
		if err != nil {
			return nil, &types.SyntaxError{Msg: "invalid literal", Cause: err}
		}
		return Literal{Value: v}, nil
	}
}

func parseVar(operands any) (Expression, error) {
	switch v := operands.(type) {
	case string:
		return Variable{Path: v}, nil
	case []any:
		if len(v) == 0 || len(v) > 2 {
			return nil, &types.SyntaxError{
				Msg: fmt.Sprintf("var expects [path] or [path, default], got %d elements", len(v)),
			}
		}
		path, ok := v[0].(string)
		if !ok {
			return nil, &types.SyntaxError{Msg: "var path must be a string"}
		}
		if len(v) == 1 {
			return Variable{Path: path}, nil
		}
		def, err := types.FromJSON(v[1])
		if err != nil {
			return nil, &types.SyntaxError{Msg: "invalid var default", Cause: err}
		}
		return Variable{Path: path, Default: &def}, nil
	default:
		return nil, &types.SyntaxError{Msg: "var expects a string path or [path, default]"}
	}
}

func parseOperator(name string, operands any, depth int) (Expression, error) {
	var list []any
	if arr, ok := operands.([]any); ok {
		list = arr
	} else {
		list = []any{operands}
	}
	if len(list) > types.MaxOperandCount {
		return nil, &types.SyntaxError{
			Msg: fmt.Sprintf("operator %q exceeds maximum operand count %d", name, types.MaxOperandCount),
		}
	}
	ops := make([]Expression, len(list))
	for i, o := range list {
		e, err := parseNode(o, depth+1)
		if err != nil {
			return nil, err
		}
		ops[i] = e
	}
	return Operator{Name: name, Operands: ops}, nil
}
