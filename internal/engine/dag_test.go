package engine

import (
	"errors"
	"testing"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

func mkRule(id string, orderIndex int, inputs, outputs []string) types.Rule {
	return types.Rule{
		ID:               types.RuleID(id),
		RuleType:         "attribute",
		Expression:       `1`,
		InputAttributes:  inputs,
		OutputAttributes: outputs,
		Enabled:          true,
		OrderIndex:       orderIndex,
	}
}

func TestBuildPlanLevels(t *testing.T) {
	// a, b independent; c reads a's output; d reads c's output.
	rules := []types.Rule{
		mkRule("rule-a", 0, []string{"in.x"}, []string{"mid.a"}),
		mkRule("rule-b", 1, []string{"in.y"}, []string{"mid.b"}),
		mkRule("rule-c", 0, []string{"mid.a", "mid.b"}, []string{"out.c"}),
		mkRule("rule-d", 0, []string{"out.c"}, []string{"out.d"}),
	}
	plan, err := BuildPlan(rules)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v, want nil", err)
	}
	if len(plan.Levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(plan.Levels))
	}
	if got := plan.Levels[0].Rules; len(got) != 2 || got[0] != "rule-a" || got[1] != "rule-b" {
		t.Errorf("level 0 = %v, want [rule-a rule-b]", got)
	}
	if got := plan.Levels[1].Rules; len(got) != 1 || got[0] != "rule-c" {
		t.Errorf("level 1 = %v, want [rule-c]", got)
	}
	if got := plan.Levels[2].Rules; len(got) != 1 || got[0] != "rule-d" {
		t.Errorf("level 2 = %v, want [rule-d]", got)
	}
	if prod, ok := plan.Producer("out.c"); !ok || prod != "rule-c" {
		t.Errorf("Producer(out.c) = %v, %v, want rule-c, true", prod, ok)
	}
}

func TestBuildPlanOrderIndexTieBreak(t *testing.T) {
	rules := []types.Rule{
		mkRule("rule-z", 1, nil, []string{"out.z"}),
		mkRule("rule-a", 2, nil, []string{"out.a"}),
		mkRule("rule-m", 1, nil, []string{"out.m"}),
	}
	plan, err := BuildPlan(rules)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v, want nil", err)
	}
	got := plan.Levels[0].Rules
	want := []types.RuleID{"rule-m", "rule-z", "rule-a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level order = %v, want %v (orderIndex then ID)", got, want)
			break
		}
	}
}

func TestBuildPlanDuplicateOutput(t *testing.T) {
	rules := []types.Rule{
		mkRule("rule-1", 0, nil, []string{"out.x"}),
		mkRule("rule-2", 0, nil, []string{"out.x"}),
	}
	_, err := BuildPlan(rules)
	var doe *types.DuplicateOutputError
	if !errors.As(err, &doe) {
		t.Fatalf("BuildPlan() error = %v, want DuplicateOutputError", err)
	}
	if doe.Path != "out.x" {
		t.Errorf("Path = %q, want out.x", doe.Path)
	}
	if doe.RuleIDs[0] != "rule-1" || doe.RuleIDs[1] != "rule-2" {
		t.Errorf("RuleIDs = %v, want [rule-1 rule-2]", doe.RuleIDs)
	}
}

func TestBuildPlanCycle(t *testing.T) {
	rules := []types.Rule{
		mkRule("rule-1", 0, []string{"b"}, []string{"a"}),
		mkRule("rule-2", 0, []string{"a"}, []string{"b"}),
	}
	_, err := BuildPlan(rules)
	var cde *types.CyclicDependencyError
	if !errors.As(err, &cde) {
		t.Fatalf("BuildPlan() error = %v, want CyclicDependencyError", err)
	}
	if len(cde.Chain) < 3 {
		t.Fatalf("Chain = %v, want witness of at least 3 entries", cde.Chain)
	}
	if cde.Chain[0] != cde.Chain[len(cde.Chain)-1] {
		t.Errorf("Chain = %v, want first element repeated at the end", cde.Chain)
	}

	// Determinism: the same definitions yield the same witness.
	_, err2 := BuildPlan(rules)
	var cde2 *types.CyclicDependencyError
	if !errors.As(err2, &cde2) {
		t.Fatalf("BuildPlan() second error = %v, want CyclicDependencyError", err2)
	}
	if len(cde.Chain) != len(cde2.Chain) {
		t.Fatalf("witness chains differ in length: %v vs %v", cde.Chain, cde2.Chain)
	}
	for i := range cde.Chain {
		if cde.Chain[i] != cde2.Chain[i] {
			t.Errorf("witness chains differ: %v vs %v", cde.Chain, cde2.Chain)
			break
		}
	}
}

func TestBuildPlanSelfReferenceNotACycle(t *testing.T) {
	// A rule reading its own output (running total shapes) is not an edge.
	rules := []types.Rule{
		mkRule("rule-1", 0, []string{"a"}, []string{"a"}),
	}
	if _, err := BuildPlan(rules); err != nil {
		t.Errorf("BuildPlan() error = %v, want nil", err)
	}
}

func TestRuleSetHashSensitivity(t *testing.T) {
	rules := []types.Rule{mkRule("rule-1", 0, []string{"x"}, []string{"y"})}
	h1 := RuleSetHash(rules)

	edited := []types.Rule{mkRule("rule-1", 0, []string{"x"}, []string{"y"})}
	edited[0].Expression = `2`
	if RuleSetHash(edited) == h1 {
		t.Error("expression edit did not change rule-set hash")
	}

	disabled := []types.Rule{mkRule("rule-1", 0, []string{"x"}, []string{"y"})}
	disabled[0].Enabled = false
	if RuleSetHash(disabled) == h1 {
		t.Error("enable flip did not change rule-set hash")
	}

	if RuleSetHash(rules) != h1 {
		t.Error("hash is not stable for identical input")
	}
}
