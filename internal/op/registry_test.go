package op

import (
	"errors"
	"testing"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	fn := func(args []types.Value) (types.Value, error) { return types.Null(), nil }
	if err := r.Register("custom", Arity{Min: 1, Max: 1}, fn); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	if err := r.Register("custom", Arity{Min: 1, Max: 1}, fn); err == nil {
		t.Error("Register() error = nil, want duplicate rejection")
	}
	if err := r.Register("", Arity{Min: 1, Max: 1}, fn); err == nil {
		t.Error("Register() error = nil, want empty-name rejection")
	}
}

func TestLookup(t *testing.T) {
	r := Default()
	fn, arity, ok := r.Lookup("+")
	if !ok || fn == nil {
		t.Fatal("Lookup(\"+\") not found")
	}
	if arity.Min != 1 || arity.Max != -1 {
		t.Errorf("arity = %+v, want {1, -1}", arity)
	}
	if _, _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup(\"nope\") ok = true, want false")
	}
}

func TestCheckArity(t *testing.T) {
	r := Default()
	if err := r.CheckArity("+", 2); err != nil {
		t.Errorf("CheckArity(+, 2) error = %v, want nil", err)
	}
	var ce *types.CompileError
	if err := r.CheckArity("nope", 1); !errors.As(err, &ce) {
		t.Errorf("CheckArity(nope, 1) error = %v, want CompileError", err)
	}
	if err := r.CheckArity("%", 3); !errors.As(err, &ce) {
		t.Errorf("CheckArity(%%, 3) error = %v, want CompileError", err)
	}
}

func TestCustomOperatorCallable(t *testing.T) {
	r := Default()
	err := r.Register("double", Arity{Min: 1, Max: 1}, func(args []types.Value) (types.Value, error) {
		i, _ := args[0].AsInt()
		return types.Int(i * 2), nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	fn, _, _ := r.Lookup("double")
	got, err := fn([]types.Value{types.Int(21)})
	if err != nil {
		t.Fatalf("double(21) error = %v, want nil", err)
	}
	if !got.Equal(types.Int(42)) {
		t.Errorf("double(21) = %v, want 42", got)
	}
}
