package op

import (
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func registerComparison(r *Registry) {
	mustRegister(r, "<", Arity{Min: 2, Max: -1}, chainCompare("<", func(c int) bool { return c < 0 }))
	mustRegister(r, "<=", Arity{Min: 2, Max: -1}, chainCompare("<=", func(c int) bool { return c <= 0 }))
	mustRegister(r, ">", Arity{Min: 2, Max: -1}, chainCompare(">", func(c int) bool { return c > 0 }))
	mustRegister(r, ">=", Arity{Min: 2, Max: -1}, chainCompare(">=", func(c int) bool { return c >= 0 }))
	mustRegister(r, "==", Arity{Min: 2, Max: 2}, func(args []types.Value) (types.Value, error) {
		return types.Bool(looseEquals(args[0], args[1])), nil
	})
	mustRegister(r, "!=", Arity{Min: 2, Max: 2}, func(args []types.Value) (types.Value, error) {
		return types.Bool(!looseEquals(args[0], args[1])), nil
	})
	mustRegister(r, "===", Arity{Min: 2, Max: 2}, func(args []types.Value) (types.Value, error) {
		return types.Bool(args[0].Equal(args[1])), nil
	})
	mustRegister(r, "!==", Arity{Min: 2, Max: 2}, func(args []types.Value) (types.Value, error) {
		return types.Bool(!args[0].Equal(args[1])), nil
	})
}

// chainCompare applies the relation pairwise across the operand list, so
// {"<": [1, 2, 3]} is the between check 1 < 2 < 3.
func chainCompare(op string, rel func(int) bool) Func {
	return func(args []types.Value) (types.Value, error) {
		for i := 0; i+1 < len(args); i++ {
			c, err := compareValues(op, args[i], args[i+1])
			if err != nil {
				return types.Null(), err
			}
			if !rel(c) {
				return types.Bool(false), nil
			}
		}
		return types.Bool(true), nil
	}
}

func registerLogic(r *Registry) {
	mustRegister(r, "!", Arity{Min: 1, Max: 1}, func(args []types.Value) (types.Value, error) {
		return types.Bool(!args[0].Truthy()), nil
	})
}
