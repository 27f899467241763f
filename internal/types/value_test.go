package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero int", Int(0), false},
		{"nonzero int", Int(7), true},
		{"zero float", Float(0), false},
		{"nonzero float", Float(0.5), true},
		{"zero decimal", Dec(decimal.Zero), false},
		{"nonzero decimal", Dec(decimal.NewFromInt(3)), true},
		{"empty string", Str(""), false},
		{"string", Str("x"), true},
		{"empty array", Array(), false},
		{"array", Array(Int(1)), true},
		{"empty object", Object(map[string]Value{}), false},
		{"object", Object(map[string]Value{"a": Int(1)}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualStrict(t *testing.T) {
	if Int(1).Equal(Float(1)) {
		t.Error("Int(1).Equal(Float(1)) = true, want false (strict equality is kind-sensitive)")
	}
	if !Array(Int(1), Str("a")).Equal(Array(Int(1), Str("a"))) {
		t.Error("identical arrays compare unequal")
	}
	if Array(Int(1)).Equal(Array(Int(2))) {
		t.Error("distinct arrays compare equal")
	}
	a := Object(map[string]Value{"x": Int(1)})
	b := Object(map[string]Value{"x": Int(1)})
	if !a.Equal(b) {
		t.Error("identical objects compare unequal")
	}
}

func TestFromJSONNumber(t *testing.T) {
	v, err := FromJSONNumber(json.Number("42"))
	if err != nil {
		t.Fatalf("FromJSONNumber() error = %v, want nil", err)
	}
	if v.Kind() != KindInt {
		t.Errorf("kind = %v, want int", v.Kind())
	}

	v, err = FromJSONNumber(json.Number("42.0"))
	if err != nil {
		t.Fatalf("FromJSONNumber() error = %v, want nil", err)
	}
	if v.Kind() != KindFloat {
		t.Errorf("kind = %v, want float (literal carries a fraction)", v.Kind())
	}
}

func TestParseJSONValue(t *testing.T) {
	v, err := ParseJSONValue([]byte(`{"a": [1, 2.5, "x", null, true]}`))
	if err != nil {
		t.Fatalf("ParseJSONValue() error = %v, want nil", err)
	}
	obj, ok := v.AsObject()
	if !ok {
		t.Fatalf("kind = %v, want object", v.Kind())
	}
	arr, ok := obj["a"].AsArray()
	if !ok || len(arr) != 5 {
		t.Fatalf("a = %v, want 5-element array", obj["a"])
	}
	wantKinds := []Kind{KindInt, KindFloat, KindString, KindNull, KindBool}
	for i, k := range wantKinds {
		if arr[i].Kind() != k {
			t.Errorf("a[%d] kind = %v, want %v", i, arr[i].Kind(), k)
		}
	}
}

func TestMarshalJSONDecimal(t *testing.T) {
	d := Dec(decimal.RequireFromString("10.25"))
	got, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v, want nil", err)
	}
	if string(got) != "10.25" {
		t.Errorf("Marshal() = %s, want 10.25", got)
	}
}

func TestAsIntConversions(t *testing.T) {
	if i, ok := Float(3.0).AsInt(); !ok || i != 3 {
		t.Errorf("Float(3.0).AsInt() = %d, %v, want 3, true", i, ok)
	}
	if _, ok := Float(3.5).AsInt(); ok {
		t.Error("Float(3.5).AsInt() ok = true, want false")
	}
	if _, ok := Str("3").AsInt(); ok {
		t.Error("Str(\"3\").AsInt() ok = true, want false")
	}
}
