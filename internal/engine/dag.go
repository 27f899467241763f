package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

/*
Plan construction walks the producer/consumer graph over attribute paths:
a rule that outputs a path is the producer for every rule that lists the
path as an input. Duplicate producers and cycles are definition errors
caught here, before anything executes. Levels come from longest-path
depth: a rule with no produced inputs sits at level 0, otherwise one past
its deepest producer. Rules inside a level are independent by
construction and run concurrently; their listed order (orderIndex, then
rule ID) only makes output deterministic.
*/

// Level is one parallel stage of an execution plan.
type Level struct {
	Index int
	Rules []types.RuleID
}

// ExecutionPlan is the leveled schedule for a rule set.
type ExecutionPlan struct {
	Levels []Level

	rules     map[types.RuleID]types.Rule
	producers map[string]types.RuleID
}

// Rule returns the rule definition scheduled under id.
func (p *ExecutionPlan) Rule(id types.RuleID) (types.Rule, bool) {
	r, ok := p.rules[id]
	return r, ok
}

// Producer returns the rule producing an attribute path, if any.
func (p *ExecutionPlan) Producer(path string) (types.RuleID, bool) {
	id, ok := p.producers[path]
	return id, ok
}

// RuleCount reports the number of scheduled rules.
func (p *ExecutionPlan) RuleCount() int {
	return len(p.rules)
}

type depEdge struct {
	to   types.RuleID
	attr string
}

// BuildPlan constructs the execution plan for a set of enabled rules.
// DuplicateOutputError and CyclicDependencyError abort construction.
func BuildPlan(rules []types.Rule) (*ExecutionPlan, error) {
	byID := make(map[types.RuleID]types.Rule, len(rules))
	producers := make(map[string]types.RuleID)
	for _, r := range rules {
		byID[r.ID] = r
		for _, out := range r.OutputAttributes {
			if prev, ok := producers[out]; ok {
				return nil, &types.DuplicateOutputError{Path: out, RuleIDs: [2]types.RuleID{prev, r.ID}}
			}
			producers[out] = r.ID
		}
	}

	// Producer -> consumer adjacency, sorted for deterministic traversal.
	adj := make(map[types.RuleID][]depEdge, len(rules))
	for _, r := range rules {
		for _, in := range r.InputAttributes {
			prod, ok := producers[in]
			if !ok || prod == r.ID {
				continue
			}
			adj[prod] = append(adj[prod], depEdge{to: r.ID, attr: in})
		}
	}
	for id := range adj {
		edges := adj[id]
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].to != edges[j].to {
				return edges[i].to < edges[j].to
			}
			return edges[i].attr < edges[j].attr
		})
	}

	if err := findCycle(rules, adj); err != nil {
		return nil, err
	}

	depth := make(map[types.RuleID]int, len(rules))
	var depthOf func(types.RuleID) int
	depthOf = func(id types.RuleID) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		for _, in := range byID[id].InputAttributes {
			if prod, ok := producers[in]; ok && prod != id {
				if pd := depthOf(prod) + 1; pd > d {
					d = pd
				}
			}
		}
		depth[id] = d
		return d
	}

	maxDepth := 0
	for _, r := range rules {
		if d := depthOf(r.ID); d > maxDepth {
			maxDepth = d
		}
	}

	buckets := make([][]types.RuleID, maxDepth+1)
	for _, r := range rules {
		d := depth[r.ID]
		buckets[d] = append(buckets[d], r.ID)
	}
	levels := make([]Level, 0, len(buckets))
	for i, ids := range buckets {
		if len(ids) == 0 {
			continue
		}
		sort.Slice(ids, func(a, b int) bool {
			ra, rb := byID[ids[a]], byID[ids[b]]
			if ra.OrderIndex != rb.OrderIndex {
				return ra.OrderIndex < rb.OrderIndex
			}
			return ra.ID < rb.ID
		})
		levels = append(levels, Level{Index: i, Rules: ids})
	}

	return &ExecutionPlan{Levels: levels, rules: byID, producers: producers}, nil
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// findCycle runs a colored DFS from every rule in sorted ID order, so the
// same definitions always yield the same witness. The witness chain holds
// the attribute paths carried along the cycle's edges, closed by
// repeating the first.
func findCycle(rules []types.Rule, adj map[types.RuleID][]depEdge) error {
	order := make([]types.RuleID, len(rules))
	for i, r := range rules {
		order[i] = r.ID
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	color := make(map[types.RuleID]int, len(rules))
	type frame struct {
		id   types.RuleID
		attr string // attribute on the edge that led here
	}
	var stack []frame

	var visit func(id types.RuleID, attr string) error
	visit = func(id types.RuleID, attr string) error {
		color[id] = colorGray
		stack = append(stack, frame{id: id, attr: attr})
		for _, e := range adj[id] {
			switch color[e.to] {
			case colorGray:
				// Back edge closes a cycle; reconstruct from the stack.
				start := 0
				for i := range stack {
					if stack[i].id == e.to {
						start = i
						break
					}
				}
				chain := make([]string, 0, len(stack)-start+2)
				for _, f := range stack[start+1:] {
					chain = append(chain, f.attr)
				}
				chain = append(chain, e.attr)
				if len(chain) > 0 {
					chain = append(chain, chain[0])
				}
				return &types.CyclicDependencyError{Chain: chain}
			case colorWhite:
				if err := visit(e.to, e.attr); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = colorBlack
		return nil
	}

	for _, id := range order {
		if color[id] == colorWhite {
			if err := visit(id, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// RuleSetHash fingerprints a rule set for plan-cache keying. Any rule
// edit, reorder or enable/disable flips the hash.
func RuleSetHash(rules []types.Rule) string {
	sorted := make([]types.Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	h := sha256.New()
	for _, r := range sorted {
		fmt.Fprintf(h, "%s\x00%s\x00%d\x00%t\x00", r.ID, r.Expression, r.OrderIndex, r.Enabled)
		for _, in := range r.InputAttributes {
			fmt.Fprintf(h, "i:%s\x00", in)
		}
		for _, out := range r.OutputAttributes {
			fmt.Fprintf(h, "o:%s\x00", out)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
