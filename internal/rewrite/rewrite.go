// Package rewrite transforms parsed queries into cheaper equivalent forms.
// A small pipeline of rules runs to a fixed point; each rule clones its
// input, so callers keep the original tree untouched. Alongside the rewritten
// query the package proposes alternative formulations that a reviewer can
// apply by hand.
package rewrite

import "sqlsage/internal/sqlast"

// MaxPasses bounds the fixed-point iteration over the rule pipeline.
const MaxPasses = 5

// Rule is a single structural transformation. Apply returns the rewritten
// tree and whether anything changed. Implementations never mutate the input.
type Rule interface {
	Name() string
	Apply(root sqlast.Node) (sqlast.Node, bool)
}

var defaultRules = []Rule{
	simplifyRule{},
	pushdownRule{},
	pruneRule{},
}

// Alternative is an independently derived form of the original query.
type Alternative struct {
	Label       string `json:"label"`
	SQL         string `json:"sql"`
	Description string `json:"description"`
}

// Result carries the rewritten query, the rules that changed it, a
// structural cost-reduction estimate, and the alternative formulations.
type Result struct {
	Optimized     sqlast.Node   `json:"-"`
	SQL           string        `json:"optimized_sql"`
	CostReduction int           `json:"estimated_cost_reduction_percent"`
	RulesApplied  []string      `json:"rules_applied"`
	Alternatives  []Alternative `json:"alternatives"`
}

// Rewrite drives the rule pipeline to a fixed point and collects the
// alternative forms. Rules that fired are recorded once each, in the order
// they first changed the tree.
func Rewrite(root sqlast.Node) Result {
	if root == nil {
		return Result{}
	}

	optimized := sqlast.Clone(root)
	applied := []string{}
	fired := make(map[string]bool)

	for pass := 0; pass < MaxPasses; pass++ {
		changed := false
		for _, rule := range defaultRules {
			next, ruleChanged := rule.Apply(optimized)
			if !ruleChanged {
				continue
			}
			optimized = next
			changed = true
			if !fired[rule.Name()] {
				fired[rule.Name()] = true
				applied = append(applied, rule.Name())
			}
		}
		if !changed {
			break
		}
	}

	return Result{
		Optimized:     optimized,
		SQL:           sqlast.Print(optimized),
		CostReduction: costReduction(root, optimized),
		RulesApplied:  applied,
		Alternatives:  Alternatives(root),
	}
}

// costReduction estimates saved work as the node-count delta relative to
// the input. Rewrites that only move nodes report zero.
func costReduction(before, after sqlast.Node) int {
	b := sqlast.CountNodes(before)
	a := sqlast.CountNodes(after)
	if b == 0 || a >= b {
		return 0
	}
	return (b - a) * 100 / b
}
