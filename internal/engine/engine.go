package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/op"
	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// Config tunes engine caching and parallelism. Zero values take defaults.
type Config struct {
	// PromotionThreshold is the eval count at which a rule moves from the
	// interpreter to the VM. 0 takes the default; negative disables.
	PromotionThreshold int

	// RuleCacheSize bounds the compiled-rule LRU.
	RuleCacheSize int

	// PlanCacheSize bounds the execution-plan LRU.
	PlanCacheSize int

	// Workers bounds intra-level rule parallelism.
	Workers int

	// BatchWorkers bounds row parallelism in BatchEvaluate.
	BatchWorkers int
}

const (
	defaultPromotionThreshold = 100
	defaultRuleCacheSize      = 1024
	defaultPlanCacheSize      = 128
)

func (c Config) withDefaults() Config {
	if c.PromotionThreshold == 0 {
		c.PromotionThreshold = defaultPromotionThreshold
	}
	if c.RuleCacheSize <= 0 {
		c.RuleCacheSize = defaultRuleCacheSize
	}
	if c.PlanCacheSize <= 0 {
		c.PlanCacheSize = defaultPlanCacheSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Engine evaluates products. Safe for concurrent use.
type Engine struct {
	reg   *op.Registry
	cfg   Config
	rules *RuleCache
	plans *lru.Cache[string, *ExecutionPlan]
}

// New builds an engine around an operator registry.
func New(reg *op.Registry, cfg Config) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil operator registry")
	}
	cfg = cfg.withDefaults()
	threshold := uint64(0)
	if cfg.PromotionThreshold > 0 {
		threshold = uint64(cfg.PromotionThreshold)
	}
	rules, err := NewRuleCache(reg, cfg.RuleCacheSize, threshold)
	if err != nil {
		return nil, err
	}
	plans, err := lru.New[string, *ExecutionPlan](cfg.PlanCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{reg: reg, cfg: cfg, rules: rules, plans: plans}, nil
}

// Registry returns the engine's operator registry.
func (e *Engine) Registry() *op.Registry { return e.reg }

func planKey(productID types.ProductID, ruleSetHash string) string {
	return string(productID) + "\x00" + ruleSetHash
}

// Plan returns the cached execution plan for the product's enabled rules,
// building it on miss. Any rule edit changes the rule-set hash and thus
// the key, so stale plans are never served.
func (e *Engine) Plan(p *types.Product) (*ExecutionPlan, error) {
	enabled := p.EnabledRules()
	key := planKey(p.ID, RuleSetHash(enabled))
	if plan, ok := e.plans.Get(key); ok {
		return plan, nil
	}
	plan, err := BuildPlan(enabled)
	if err != nil {
		return nil, err
	}
	e.plans.Add(key, plan)
	return plan, nil
}

// InvalidateProduct drops every cached plan and rule compilation for a
// product. Call on any rule edit; hashing already prevents stale reads,
// this just releases the memory promptly.
func (e *Engine) InvalidateProduct(p *types.Product) {
	for _, key := range e.plans.Keys() {
		if len(key) > len(p.ID) && key[:len(p.ID)] == string(p.ID) && key[len(p.ID)] == 0 {
			e.plans.Remove(key)
		}
	}
	for _, r := range p.Rules {
		e.rules.Remove(r)
	}
}

// RuleResult reports the outcome of one scheduled rule.
type RuleResult struct {
	RuleID     types.RuleID           `json:"ruleId"`
	Outputs    map[string]types.Value `json:"outputs,omitempty"`
	DurationNs int64                  `json:"executionTimeNs"`
	Skipped    bool                   `json:"skipped,omitempty"`
	SkipReason string                 `json:"skipReason,omitempty"`
	Error      string                 `json:"error,omitempty"`

	err error
}

// Err returns the evaluation error, if any.
func (r RuleResult) Err() error { return r.err }

// Metrics aggregates one evaluation run.
type Metrics struct {
	RulesExecuted int   `json:"rulesExecuted"`
	RulesSkipped  int   `json:"rulesSkipped"`
	TotalTimeNs   int64 `json:"totalTimeNs"`
}

// AttributeError surfaces a per-rule failure by output attribute path.
type AttributeError struct {
	AttributePath string `json:"attributePath"`
	Message       string `json:"message"`
}

// Result is a full evaluation outcome. Errors holds per-rule failures;
// a non-empty Errors with populated Outputs is the partial-failure case.
type Result struct {
	Outputs map[string]types.Value `json:"outputs"`
	Rules   []RuleResult           `json:"rules"`
	Errors  []AttributeError       `json:"errors,omitempty"`
	Metrics Metrics                `json:"metrics"`
}

// Evaluate runs a product's enabled rules against the input attributes.
//
// Levels run in order; rules inside a level run concurrently on a worker
// pool bounded by Config.Workers, and their outputs are committed to the
// context only after the whole level finishes. A rule whose inputs are
// absent is skipped; a rule that fails is recorded and its dependents
// are skipped at their own level by the same missing-input test.
// Cancellation is checked between levels and between rule dispatches;
// a cancelled run returns the error alongside the partial result.
func (e *Engine) Evaluate(ctx context.Context, p *types.Product, inputs map[string]types.Value) (*Result, error) {
	start := time.Now()
	plan, err := e.Plan(p)
	if err != nil {
		return nil, err
	}

	evalCtx := NewContext(inputs)
	res := &Result{
		Outputs: make(map[string]types.Value),
		Rules:   make([]RuleResult, 0, plan.RuleCount()),
	}

	sem := make(chan struct{}, e.cfg.Workers)
	for _, level := range plan.Levels {
		if err := ctx.Err(); err != nil {
			e.finish(res, evalCtx, start)
			return res, err
		}
		levelResults := make([]RuleResult, len(level.Rules))
		var wg sync.WaitGroup
		cancelled := false
		for i, rid := range level.Rules {
			if err := ctx.Err(); err != nil {
				cancelled = true
				break
			}
			rule, _ := plan.Rule(rid)
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, rule types.Rule) {
				defer func() {
					<-sem
					wg.Done()
				}()
				levelResults[i] = e.evaluateRule(rule, evalCtx)
			}(i, rule)
		}
		wg.Wait()

		// Commit the level's outputs in listed order, then fold results.
		for _, rr := range levelResults {
			if rr.RuleID == "" {
				continue // dispatch aborted by cancellation
			}
			res.Rules = append(res.Rules, rr)
			switch {
			case rr.Skipped:
				res.Metrics.RulesSkipped++
			case rr.err != nil:
				res.Metrics.RulesExecuted++
				rule, _ := plan.Rule(rr.RuleID)
				attr := ""
				if len(rule.OutputAttributes) > 0 {
					attr = rule.OutputAttributes[0]
				}
				res.Errors = append(res.Errors, AttributeError{
					AttributePath: attr,
					Message:       rr.err.Error(),
				})
			default:
				res.Metrics.RulesExecuted++
				for path, v := range rr.Outputs {
					evalCtx.set(path, v)
				}
			}
		}
		if cancelled {
			e.finish(res, evalCtx, start)
			return res, ctx.Err()
		}
	}

	e.finish(res, evalCtx, start)
	return res, nil
}

func (e *Engine) finish(res *Result, evalCtx *Context, start time.Time) {
	res.Outputs = evalCtx.Computed()
	res.Metrics.TotalTimeNs = time.Since(start).Nanoseconds()
}

// evaluateRule runs one rule against the committed context state.
func (e *Engine) evaluateRule(rule types.Rule, evalCtx *Context) RuleResult {
	rr := RuleResult{RuleID: rule.ID}
	for _, in := range rule.InputAttributes {
		if _, ok := evalCtx.Resolve(in); !ok {
			rr.Skipped = true
			rr.SkipReason = fmt.Sprintf("missing input %q", in)
			return rr
		}
	}

	cr, err := e.rules.Get(rule)
	if err != nil {
		rr.err = wrapRuleError(rule, err)
		rr.Error = rr.err.Error()
		return rr
	}

	start := time.Now()
	v, err := cr.Evaluate(e.reg, evalCtx)
	rr.DurationNs = time.Since(start).Nanoseconds()
	if err != nil {
		rr.err = wrapRuleError(rule, err)
		rr.Error = rr.err.Error()
		return rr
	}

	rr.Outputs = bindOutputs(rule, v)
	return rr
}

// bindOutputs maps a rule's result value onto its declared output paths.
// The result binds to every declared path; values are immutable, so the
// shared binding is safe.
func bindOutputs(rule types.Rule, v types.Value) map[string]types.Value {
	outs := make(map[string]types.Value, len(rule.OutputAttributes))
	for _, path := range rule.OutputAttributes {
		outs[path] = v
	}
	return outs
}

func wrapRuleError(rule types.Rule, err error) error {
	attr := ""
	if len(rule.OutputAttributes) > 0 {
		attr = rule.OutputAttributes[0]
	}
	operator := ""
	var tme *types.TypeMismatchError
	var ae *types.ArithmeticError
	var ce *types.CompileError
	switch {
	case errors.As(err, &tme):
		operator = tme.Op
	case errors.As(err, &ae):
		operator = ae.Op
	case errors.As(err, &ce):
		operator = ce.Op
	}
	return &types.EvaluationError{AttributePath: attr, Operator: operator, Cause: err}
}

// BatchResult aggregates independent per-row evaluations.
type BatchResult struct {
	Results      []*Result `json:"results"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	TotalTimeNs  int64     `json:"totalTimeNs"`
	AvgTimeNs    int64     `json:"avgTimeNs"`
}

// BatchEvaluate evaluates each input row in an isolated context, with row
// parallelism bounded by Config.BatchWorkers. A row counts as failed when
// any of its rules errored. Cancellation stops dispatching new rows and
// returns the rows finished so far.
func (e *Engine) BatchEvaluate(ctx context.Context, p *types.Product, rows []map[string]types.Value) (*BatchResult, error) {
	start := time.Now()
	// Build the plan once up front so a definition error fails the batch
	// before any row runs.
	if _, err := e.Plan(p); err != nil {
		return nil, err
	}

	results := make([]*Result, len(rows))
	rowErrs := make([]error, len(rows))
	sem := make(chan struct{}, e.cfg.BatchWorkers)
	var wg sync.WaitGroup
	var cancelled error
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, row map[string]types.Value) {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i], rowErrs[i] = e.Evaluate(ctx, p, row)
		}(i, row)
	}
	wg.Wait()

	br := &BatchResult{}
	for i, r := range results {
		if r == nil {
			continue
		}
		br.Results = append(br.Results, r)
		if rowErrs[i] != nil || len(r.Errors) > 0 {
			br.FailureCount++
		} else {
			br.SuccessCount++
		}
	}
	br.TotalTimeNs = time.Since(start).Nanoseconds()
	if n := len(br.Results); n > 0 {
		br.AvgTimeNs = br.TotalTimeNs / int64(n)
	}
	if cancelled != nil {
		return br, cancelled
	}
	return br, nil
}
