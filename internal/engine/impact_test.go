package engine

import (
	"testing"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// rateProduct: applicant.age feeds rule-locked which produces the
// immutable rate.locked; rate.locked feeds rule-offer producing
// offer.text.
func rateProduct() *types.Product {
	return &types.Product{
		ID:     "prod-2",
		Name:   "rate",
		Status: "active",
		Attributes: []types.AbstractAttribute{
			{AbstractPath: "applicant.age", DatatypeID: "int"},
			{AbstractPath: "rate.locked", DatatypeID: "float", Immutable: true},
			{AbstractPath: "offer.text", DatatypeID: "string"},
		},
		Rules: []types.Rule{
			exprRule("rule-locked", 0,
				`{"+": [{"var": "applicant.age"}, 10]}`,
				[]string{"applicant.age"}, []string{"rate.locked"}),
			exprRule("rule-offer", 0,
				`{"+": ["rate is ", {"var": "rate.locked"}]}`,
				[]string{"rate.locked"}, []string{"offer.text"}),
		},
		Functionalities: []types.Functionality{
			{Name: "quote", RequiredAttributePaths: []string{"offer.text"}},
			{Name: "kyc", RequiredAttributePaths: []string{"customer.document"}},
		},
	}
}

func TestAnalyzeImmutableDependent(t *testing.T) {
	e := newTestEngine(t)
	ia, err := e.Analyze(rateProduct(), "applicant.age")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want nil", err)
	}
	if !ia.HasImmutableDependents {
		t.Error("HasImmutableDependents = false, want true (rate.locked is derived from the target)")
	}

	var locked *DependencyInfo
	for i := range ia.TransitiveDependencies {
		if ia.TransitiveDependencies[i].AttributePath == "rate.locked" {
			locked = &ia.TransitiveDependencies[i]
		}
	}
	if locked == nil {
		t.Fatalf("rate.locked absent from transitive dependencies: %+v", ia.TransitiveDependencies)
	}
	if !locked.Immutable || locked.Distance != 1 || locked.Direction != "downstream" {
		t.Errorf("rate.locked info = %+v, want immutable downstream at distance 1", *locked)
	}

	var offer *DependencyInfo
	for i := range ia.TransitiveDependencies {
		if ia.TransitiveDependencies[i].AttributePath == "offer.text" {
			offer = &ia.TransitiveDependencies[i]
		}
	}
	if offer == nil || offer.Distance != 2 {
		t.Errorf("offer.text = %+v, want distance 2", offer)
	}

	if len(ia.AffectedRules) != 2 {
		t.Errorf("AffectedRules = %v, want both rules", ia.AffectedRules)
	}
	if len(ia.AffectedFunctionalities) != 1 || ia.AffectedFunctionalities[0] != "quote" {
		t.Errorf("AffectedFunctionalities = %v, want [quote]", ia.AffectedFunctionalities)
	}
}

func TestAnalyzeDirections(t *testing.T) {
	e := newTestEngine(t)
	ia, err := e.Analyze(rateProduct(), "rate.locked")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want nil", err)
	}
	var foundUp, foundDown bool
	for _, d := range ia.DirectDependencies {
		if d.AttributePath == "applicant.age" && d.Direction == "upstream" {
			foundUp = true
		}
		if d.AttributePath == "offer.text" && d.Direction == "downstream" {
			foundDown = true
		}
	}
	if !foundUp {
		t.Errorf("direct upstream applicant.age missing: %+v", ia.DirectDependencies)
	}
	if !foundDown {
		t.Errorf("direct downstream offer.text missing: %+v", ia.DirectDependencies)
	}
}

func TestAnalyzeUnknownPath(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Analyze(rateProduct(), "nope"); err == nil {
		t.Error("Analyze(nope) error = nil, want unknown-path error")
	}
}

func TestCheckModification(t *testing.T) {
	e := newTestEngine(t)

	mc, err := e.CheckModification(rateProduct(), "applicant.age")
	if err != nil {
		t.Fatalf("CheckModification() error = %v, want nil", err)
	}
	if mc.CanModify {
		t.Error("CanModify = true, want false (immutable attribute derives from target)")
	}
	if !mc.RequiresClone {
		t.Error("RequiresClone = false, want true")
	}
	if len(mc.AffectedImmutablePaths) != 1 || mc.AffectedImmutablePaths[0] != "rate.locked" {
		t.Errorf("AffectedImmutablePaths = %v, want [rate.locked]", mc.AffectedImmutablePaths)
	}

	// A leaf with no immutable reach is freely modifiable.
	mc, err = e.CheckModification(rateProduct(), "offer.text")
	if err != nil {
		t.Fatalf("CheckModification() error = %v, want nil", err)
	}
	if !mc.CanModify || mc.RequiresClone {
		t.Errorf("offer.text check = %+v, want modifiable", mc)
	}

	// Directly immutable target.
	mc, err = e.CheckModification(rateProduct(), "rate.locked")
	if err != nil {
		t.Fatalf("CheckModification() error = %v, want nil", err)
	}
	if mc.CanModify {
		t.Error("CanModify = true for immutable target, want false")
	}
}

func TestAnalyzeIgnoresDisabledRules(t *testing.T) {
	p := rateProduct()
	p.Rules[1].Enabled = false
	e := newTestEngine(t)
	ia, err := e.Analyze(p, "applicant.age")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want nil", err)
	}
	for _, d := range ia.TransitiveDependencies {
		if d.AttributePath == "offer.text" {
			t.Error("offer.text reachable through a disabled rule")
		}
	}
}
