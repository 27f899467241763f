package engine

import (
	"fmt"
	"sort"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

/*
Impact analysis projects the rule DAG down to attributes. For a target
path, direct dependencies are one hop away: upstream are the inputs of
the rules producing the target, downstream the outputs of the rules
consuming it. Transitive dependencies follow consumer edges outward
breadth-first, recording the hop distance at first reach; downstream
distance-1 attributes appear there too, so the transitive set is the
full blast radius of a modification.
*/

// DependencyInfo is one attribute in a target's dependency neighborhood.
type DependencyInfo struct {
	AttributePath string `json:"attributePath"`
	Direction     string `json:"direction"` // "upstream" or "downstream"
	Distance      int    `json:"distance"`
	Immutable     bool   `json:"immutable"`
}

// ImpactAnalysis reports what a change to one attribute touches.
type ImpactAnalysis struct {
	TargetPath              string           `json:"targetPath"`
	TargetImmutable         bool             `json:"targetImmutable"`
	DirectDependencies      []DependencyInfo `json:"directDependencies"`
	TransitiveDependencies  []DependencyInfo `json:"transitiveDependencies"`
	HasImmutableDependents  bool             `json:"hasImmutableDependents"`
	AffectedRules           []types.RuleID   `json:"affectedRules"`
	AffectedFunctionalities []string         `json:"affectedFunctionalities"`
}

// ModificationCheck is the yes/no view of an impact analysis.
type ModificationCheck struct {
	CanModify              bool     `json:"canModify"`
	RequiresClone          bool     `json:"requiresClone"`
	AffectedImmutablePaths []string `json:"affectedImmutablePaths"`
}

// Analyze computes the dependency neighborhood of an attribute path over
// the product's enabled rules.
func (e *Engine) Analyze(p *types.Product, targetPath string) (*ImpactAnalysis, error) {
	if _, ok := p.AttributeByPath(targetPath); !ok {
		return nil, fmt.Errorf("unknown attribute path %q", targetPath)
	}

	immutable := make(map[string]bool, len(p.Attributes))
	for _, a := range p.Attributes {
		immutable[a.AbstractPath] = a.Immutable
	}

	enabled := p.EnabledRules()
	consumers := make(map[string][]types.Rule) // input path -> rules reading it
	producers := make(map[string][]types.Rule) // output path -> rules writing it
	for _, r := range enabled {
		for _, in := range r.InputAttributes {
			consumers[in] = append(consumers[in], r)
		}
		for _, out := range r.OutputAttributes {
			producers[out] = append(producers[out], r)
		}
	}

	ia := &ImpactAnalysis{
		TargetPath:      targetPath,
		TargetImmutable: immutable[targetPath],
	}

	seenDirect := make(map[string]bool)
	// Upstream: what the producers of the target read.
	for _, r := range producers[targetPath] {
		for _, in := range r.InputAttributes {
			if in == targetPath || seenDirect["u\x00"+in] {
				continue
			}
			seenDirect["u\x00"+in] = true
			ia.DirectDependencies = append(ia.DirectDependencies, DependencyInfo{
				AttributePath: in,
				Direction:     "upstream",
				Distance:      1,
				Immutable:     immutable[in],
			})
		}
	}
	// Downstream: what the consumers of the target write.
	for _, r := range consumers[targetPath] {
		for _, out := range r.OutputAttributes {
			if out == targetPath || seenDirect["d\x00"+out] {
				continue
			}
			seenDirect["d\x00"+out] = true
			ia.DirectDependencies = append(ia.DirectDependencies, DependencyInfo{
				AttributePath: out,
				Direction:     "downstream",
				Distance:      1,
				Immutable:     immutable[out],
			})
		}
	}

	// Transitive downstream reach with hop distances, BFS.
	distance := map[string]int{targetPath: 0}
	frontier := []string{targetPath}
	affectedRules := make(map[types.RuleID]bool)
	for len(frontier) > 0 {
		var next []string
		for _, path := range frontier {
			for _, r := range consumers[path] {
				affectedRules[r.ID] = true
				for _, out := range r.OutputAttributes {
					if _, seen := distance[out]; seen {
						continue
					}
					distance[out] = distance[path] + 1
					next = append(next, out)
				}
			}
		}
		frontier = next
	}

	reachable := make([]string, 0, len(distance))
	for path := range distance {
		if path != targetPath {
			reachable = append(reachable, path)
		}
	}
	sort.Slice(reachable, func(i, j int) bool {
		if distance[reachable[i]] != distance[reachable[j]] {
			return distance[reachable[i]] < distance[reachable[j]]
		}
		return reachable[i] < reachable[j]
	})
	for _, path := range reachable {
		ia.TransitiveDependencies = append(ia.TransitiveDependencies, DependencyInfo{
			AttributePath: path,
			Direction:     "downstream",
			Distance:      distance[path],
			Immutable:     immutable[path],
		})
		if immutable[path] {
			ia.HasImmutableDependents = true
		}
	}

	ia.AffectedRules = make([]types.RuleID, 0, len(affectedRules))
	for id := range affectedRules {
		ia.AffectedRules = append(ia.AffectedRules, id)
	}
	sort.Slice(ia.AffectedRules, func(i, j int) bool { return ia.AffectedRules[i] < ia.AffectedRules[j] })

	for _, f := range p.Functionalities {
		for _, req := range f.RequiredAttributePaths {
			if req == targetPath {
				ia.AffectedFunctionalities = append(ia.AffectedFunctionalities, f.Name)
				break
			}
			if _, ok := distance[req]; ok {
				ia.AffectedFunctionalities = append(ia.AffectedFunctionalities, f.Name)
				break
			}
		}
	}
	sort.Strings(ia.AffectedFunctionalities)

	return ia, nil
}

// CheckModification decides whether an attribute may be modified in
// place. Touching an immutable attribute, or anything an immutable
// attribute is derived from, requires cloning the product instead.
func (e *Engine) CheckModification(p *types.Product, targetPath string) (*ModificationCheck, error) {
	ia, err := e.Analyze(p, targetPath)
	if err != nil {
		return nil, err
	}
	mc := &ModificationCheck{}
	if ia.TargetImmutable {
		mc.AffectedImmutablePaths = append(mc.AffectedImmutablePaths, ia.TargetPath)
	}
	for _, d := range ia.TransitiveDependencies {
		if d.Immutable {
			mc.AffectedImmutablePaths = append(mc.AffectedImmutablePaths, d.AttributePath)
		}
	}
	sort.Strings(mc.AffectedImmutablePaths)
	mc.CanModify = len(mc.AffectedImmutablePaths) == 0
	mc.RequiresClone = !mc.CanModify
	return mc, nil
}
