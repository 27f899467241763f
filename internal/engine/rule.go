package engine

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/expr"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Tier identifies which evaluator currently backs a compiled rule.
type Tier int32

const (
	// TierInterpreted walks the expression tree.
	TierInterpreted Tier = iota
	// TierBytecode runs the compiled program on the VM.
	TierBytecode
)

func (t Tier) String() string {
	if t == TierBytecode {
		return "bytecode"
	}
	return "interpreted"
}

// evaluator is the immutable active-tier handle. Promotion builds a new
// one and swaps the pointer; in-flight evaluations keep the handle they
// loaded, so a swap is never observed half-done.
type evaluator struct {
	tier Tier
	prog *bytecode.Program
}

// CompiledRule is a rule prepared for evaluation: parsed expression,
// static validation done, plus the tier state. Hot rules self-promote to
// bytecode once their evaluation count crosses the cache's threshold.
type CompiledRule struct {
	ID       types.RuleID
	Hash     string
	Inputs   []string
	Outputs  []string
	exprTree expr.Expression

	threshold uint64
	evals     atomic.Uint64
	promoting atomic.Bool
	active    atomic.Pointer[evaluator]
}

func newCompiledRule(reg *op.Registry, rule types.Rule, threshold uint64) (*CompiledRule, error) {
	tree, err := expr.Parse([]byte(rule.Expression))
	if err != nil {
		return nil, err
	}
	if err := bytecode.Check(reg, tree); err != nil {
		return nil, err
	}
	cr := &CompiledRule{
		ID:        rule.ID,
		Hash:      expr.Hash(tree),
		Inputs:    rule.InputAttributes,
		Outputs:   rule.OutputAttributes,
		exprTree:  tree,
		threshold: threshold,
	}
	cr.active.Store(&evaluator{tier: TierInterpreted})
	return cr, nil
}

// Tier reports the currently active evaluator tier.
func (cr *CompiledRule) Tier() Tier {
	return cr.active.Load().tier
}

// EvalCount reports how many evaluations this compiled rule has served.
func (cr *CompiledRule) EvalCount() uint64 {
	return cr.evals.Load()
}

// Evaluate runs the rule against a resolver using the active tier, then
// promotes once the evaluation count reaches the threshold. A threshold
// of 0 disables promotion.
func (cr *CompiledRule) Evaluate(reg *op.Registry, r Resolver) (types.Value, error) {
	n := cr.evals.Add(1)
	ev := cr.active.Load()

	var v types.Value
	var err error
	if ev.tier == TierBytecode {
		vars := make([]types.Value, len(ev.prog.Variables))
		for i, path := range ev.prog.Variables {
			if rv, ok := r.Resolve(path); ok {
				vars[i] = rv
			} else {
				vars[i] = types.Null()
			}
		}
		v, err = bytecode.Execute(ev.prog, reg, vars)
	} else {
		v, err = Interpret(reg, cr.exprTree, r)
		if cr.threshold > 0 && n >= cr.threshold {
			cr.promote(reg)
		}
	}
	return v, err
}

func (cr *CompiledRule) promote(reg *op.Registry) {
	if !cr.promoting.CompareAndSwap(false, true) {
		return
	}
	prog, err := bytecode.Compile(reg, cr.exprTree)
	if err != nil {
		// Static validation passed at construction, so this only fires if
		// the registry lost an operator since. Stay on the interpreter.
		cr.promoting.Store(false)
		return
	}
	cr.active.Store(&evaluator{tier: TierBytecode, prog: prog})
}

// RuleCache caches compiled rules, keyed by rule ID and expression text.
// Editing a rule changes the key, so stale compilations age out via LRU
// instead of being served.
type RuleCache struct {
	reg       *op.Registry
	threshold uint64
	cache     *lru.Cache[string, *CompiledRule]
}

// NewRuleCache builds a cache holding up to size compiled rules.
func NewRuleCache(reg *op.Registry, size int, threshold uint64) (*RuleCache, error) {
	c, err := lru.New[string, *CompiledRule](size)
	if err != nil {
		return nil, err
	}
	return &RuleCache{reg: reg, threshold: threshold, cache: c}, nil
}

func ruleKey(r types.Rule) string {
	return string(r.ID) + "\x00" + r.Expression
}

// Get returns the compiled form of a rule, compiling on miss.
func (rc *RuleCache) Get(rule types.Rule) (*CompiledRule, error) {
	key := ruleKey(rule)
	if cr, ok := rc.cache.Get(key); ok {
		return cr, nil
	}
	cr, err := newCompiledRule(rc.reg, rule, rc.threshold)
	if err != nil {
		return nil, err
	}
	// Two racing compiles produce equivalent values; last write wins.
	rc.cache.Add(key, cr)
	return cr, nil
}

// Remove drops a single rule's compilation.
func (rc *RuleCache) Remove(rule types.Rule) {
	rc.cache.Remove(ruleKey(rule))
}

// Purge drops every cached compilation.
func (rc *RuleCache) Purge() {
	rc.cache.Purge()
}

// Len reports the number of cached compilations.
func (rc *RuleCache) Len() int {
	return rc.cache.Len()
}
