package engine

import (
	"testing"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func TestContextResolve(t *testing.T) {
	c := NewContext(map[string]types.Value{
		"loan.amount": types.Int(5000),
		"customer": types.Object(map[string]types.Value{
			"age":  types.Int(30),
			"name": types.Str("A"),
		}),
		"items": types.Array(types.Str("a"), types.Str("b")),
	})

	if v, ok := c.Resolve("loan.amount"); !ok || !v.Equal(types.Int(5000)) {
		t.Errorf("Resolve(loan.amount) = %v, %v, want 5000, true", v, ok)
	}
	if v, ok := c.Resolve("customer.age"); !ok || !v.Equal(types.Int(30)) {
		t.Errorf("Resolve(customer.age) = %v, %v, want 30, true (structured traversal)", v, ok)
	}
	if v, ok := c.Resolve("items.1"); !ok || !v.Equal(types.Str("b")) {
		t.Errorf("Resolve(items.1) = %v, %v, want b, true", v, ok)
	}
	if _, ok := c.Resolve("customer.missing"); ok {
		t.Error("Resolve(customer.missing) ok = true, want false")
	}
	if _, ok := c.Resolve("nothing"); ok {
		t.Error("Resolve(nothing) ok = true, want false")
	}
}

func TestContextComputedShadowsInput(t *testing.T) {
	c := NewContext(map[string]types.Value{"x": types.Int(1)})
	c.set("x", types.Int(2))
	if v, _ := c.Resolve("x"); !v.Equal(types.Int(2)) {
		t.Errorf("Resolve(x) = %v, want computed 2", v)
	}
	got := c.Computed()
	if len(got) != 1 || !got["x"].Equal(types.Int(2)) {
		t.Errorf("Computed() = %v, want {x: 2}", got)
	}
}
