package bytecode

import (
	"errors"
	"testing"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func run(t *testing.T, doc string, vars map[string]types.Value) (types.Value, error) {
	t.Helper()
	reg := op.Default()
	p, err := Compile(reg, parse(t, doc))
	if err != nil {
		t.Fatalf("Compile(%s) error = %v, want nil", doc, err)
	}
	resolved := make([]types.Value, len(p.Variables))
	for i, path := range p.Variables {
		resolved[i] = vars[path] // zero Value is null
	}
	return Execute(p, reg, resolved)
}

func mustRun(t *testing.T, doc string, vars map[string]types.Value) types.Value {
	t.Helper()
	v, err := run(t, doc, vars)
	if err != nil {
		t.Fatalf("Execute(%s) error = %v, want nil", doc, err)
	}
	return v
}

func TestExecuteArithmetic(t *testing.T) {
	got := mustRun(t, `{"+": [{"*": [{"var": "x"}, 2]}, 1]}`, map[string]types.Value{"x": types.Int(20)})
	if !got.Equal(types.Int(41)) {
		t.Errorf("x*2+1 = %v, want 41", got)
	}
}

func TestExecuteIf(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		vars map[string]types.Value
		want types.Value
	}{
		{"then branch", `{"if": [true, "a", "b"]}`, nil, types.Str("a")},
		{"else branch", `{"if": [false, "a", "b"]}`, nil, types.Str("b")},
		{"elif", `{"if": [false, "a", true, "b", "c"]}`, nil, types.Str("b")},
		{"no else yields null", `{"if": [false, "a"]}`, nil, types.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.doc, tt.vars)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.doc, got, tt.want)
			}
		})
	}
}

func TestExecuteAndOrValueSemantics(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want types.Value
	}{
		{"and returns first falsy", `{"and": [1, 0, 2]}`, types.Int(0)},
		{"and returns last when all truthy", `{"and": [1, 2, 3]}`, types.Int(3)},
		{"or returns first truthy", `{"or": [0, "", "x", 2]}`, types.Str("x")},
		{"or returns last when all falsy", `{"or": [0, "", null]}`, types.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRun(t, tt.doc, nil)
			if !got.Equal(tt.want) {
				t.Errorf("%s = %v, want %v", tt.doc, got, tt.want)
			}
		})
	}
}

func TestExecuteShortCircuitSkipsErrors(t *testing.T) {
	// The false branch divides by zero; short-circuiting must never reach it.
	got := mustRun(t, `{"if": [true, 1, {"/": [1, 0]}]}`, nil)
	if !got.Equal(types.Int(1)) {
		t.Errorf("result = %v, want 1", got)
	}
	got = mustRun(t, `{"and": [0, {"/": [1, 0]}]}`, nil)
	if !got.Equal(types.Int(0)) {
		t.Errorf("and result = %v, want 0", got)
	}
	got = mustRun(t, `{"or": [1, {"/": [1, 0]}]}`, nil)
	if !got.Equal(types.Int(1)) {
		t.Errorf("or result = %v, want 1", got)
	}
}

func TestExecuteMissingVariableIsNull(t *testing.T) {
	got := mustRun(t, `{"var": "missing"}`, nil)
	if !got.IsNull() {
		t.Errorf("missing var = %v, want null", got)
	}
}

func TestExecuteVariableDefault(t *testing.T) {
	got := mustRun(t, `{"var": ["age", 18]}`, nil)
	if !got.Equal(types.Int(18)) {
		t.Errorf("defaulted var = %v, want 18", got)
	}
	got = mustRun(t, `{"var": ["age", 18]}`, map[string]types.Value{"age": types.Int(30)})
	if !got.Equal(types.Int(30)) {
		t.Errorf("resolved var = %v, want 30", got)
	}
}

func TestExecuteDivisionByZeroPropagates(t *testing.T) {
	_, err := run(t, `{"/": [10, 0]}`, nil)
	var ae *types.ArithmeticError
	if !errors.As(err, &ae) {
		t.Errorf("10/0 error = %v, want ArithmeticError", err)
	}
}

func TestExecuteVarSliceMismatch(t *testing.T) {
	reg := op.Default()
	p, err := Compile(reg, parse(t, `{"var": "x"}`))
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if _, err := Execute(p, reg, nil); err == nil {
		t.Error("Execute() error = nil, want variable slice length error")
	}
}

func TestExecuteNestedControlFlow(t *testing.T) {
	doc := `{"or": [{"and": [{"var": "a"}, {"var": "b"}]}, "fallback"]}`
	got := mustRun(t, doc, map[string]types.Value{"a": types.Int(1), "b": types.Str("yes")})
	if !got.Equal(types.Str("yes")) {
		t.Errorf("result = %v, want yes", got)
	}
	got = mustRun(t, doc, map[string]types.Value{"a": types.Int(0)})
	if !got.Equal(types.Str("fallback")) {
		t.Errorf("result = %v, want fallback", got)
	}
}
