package rewrite

import "sqlsage/internal/sqlast"

// pruneRule removes work that provably does not affect the result: clauses
// that are statically true, duplicated conjuncts, and UNION ALL arms whose
// WHERE is statically false.
type pruneRule struct{}

func (pruneRule) Name() string { return "prune" }

func (pruneRule) Apply(root sqlast.Node) (sqlast.Node, bool) {
	next := pruneTree(sqlast.Clone(root))
	return next, !sqlast.Equal(root, next)
}

// pruneTree rewrites the subtree and returns its replacement; a set
// operation may collapse into one of its arms.
func pruneTree(n sqlast.Node) sqlast.Node {
	switch v := n.(type) {
	case *sqlast.Select:
		for _, cte := range v.With {
			cte.Query = pruneTree(cte.Query)
		}
		for i := range v.From {
			v.From[i] = pruneTree(v.From[i])
		}
		for _, item := range v.Columns {
			pruneNestedQueries(item)
		}
		if v.Where != nil {
			v.Where = pruneClause(v.Where)
		}
		if v.Having != nil {
			v.Having = pruneClause(v.Having)
		}
		if v.GroupBy != nil {
			pruneNestedQueries(v.GroupBy)
		}
		if v.OrderBy != nil {
			pruneNestedQueries(v.OrderBy)
		}
		return v
	case *sqlast.SetOp:
		return pruneSetOp(v)
	case *sqlast.Subquery:
		v.Query = pruneTree(v.Query)
		return v
	case *sqlast.Join:
		v.Left = pruneTree(v.Left)
		v.Right = pruneTree(v.Right)
		if v.On != nil {
			on := pruneClause(v.On)
			if on == nil {
				// an always-true ON condition makes an inner join a plain
				// cross join; outer joins keep theirs, since ON decides
				// which rows get null-extended
				if v.JoinKind == sqlast.JoinInner {
					v.On = nil
					v.JoinKind = sqlast.JoinCross
				}
			} else {
				v.On = on
			}
		}
		return v
	}
	return n
}

// pruneClause prunes one boolean clause, returning nil when it is
// statically true and can be dropped entirely.
func pruneClause(p sqlast.Predicate) sqlast.Predicate {
	pruneNestedQueries(p)
	p = dedupConjuncts(p)
	if val, known := truth(p); known && val {
		return nil
	}
	return p
}

// pruneNestedQueries descends into subqueries held by expressions and
// predicate leaves so their own clauses get pruned too.
func pruneNestedQueries(n sqlast.Node) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *sqlast.InSubquery:
		pruneNestedQueries(v.Expr)
		v.Query = pruneTree(v.Query)
		return
	case *sqlast.Exists:
		v.Query = pruneTree(v.Query)
		return
	case *sqlast.Subquery:
		v.Query = pruneTree(v.Query)
		return
	}
	for _, child := range n.Children() {
		pruneNestedQueries(child)
	}
}

// dedupConjuncts removes structurally identical duplicates from a
// conjunction, keeping first occurrences.
func dedupConjuncts(p sqlast.Predicate) sqlast.Predicate {
	and, ok := p.(*sqlast.And)
	if !ok {
		return p
	}
	seen := make(map[string]bool)
	var kept []sqlast.Predicate
	for _, op := range and.Operands {
		key := sqlast.EncodeCanonical(op)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, op)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	and.Operands = kept
	return and
}

// pruneSetOp collapses a set operation when one arm can never produce
// rows. Only UNION ALL collapses; for UNION, INTERSECT, and EXCEPT the
// arms participate in duplicate elimination, so both stay.
func pruneSetOp(s *sqlast.SetOp) sqlast.Node {
	for _, cte := range s.With {
		cte.Query = pruneTree(cte.Query)
	}
	s.Left = pruneTree(s.Left)
	s.Right = pruneTree(s.Right)

	if s.Op != sqlast.SetUnion || !s.All {
		return s
	}
	leftEmpty := armStaticallyEmpty(s.Left)
	rightEmpty := armStaticallyEmpty(s.Right)
	var survivor sqlast.Node
	switch {
	case leftEmpty && !rightEmpty:
		survivor = s.Right
	case rightEmpty && !leftEmpty:
		survivor = s.Left
	default:
		return s
	}
	return adoptSetOpClauses(s, survivor)
}

func armStaticallyEmpty(arm sqlast.Node) bool {
	sel, ok := arm.(*sqlast.Select)
	if !ok || sel.Where == nil {
		return false
	}
	val, known := truth(sel.Where)
	return known && !val
}

// adoptSetOpClauses moves the set operation's WITH, ORDER BY, and LIMIT
// onto the surviving arm.
func adoptSetOpClauses(s *sqlast.SetOp, survivor sqlast.Node) sqlast.Node {
	switch v := survivor.(type) {
	case *sqlast.Select:
		v.With = append(s.With, v.With...)
		if v.OrderBy == nil {
			v.OrderBy = s.OrderBy
		}
		if v.Limit == nil {
			v.Limit = s.Limit
		}
		return v
	case *sqlast.SetOp:
		v.With = append(s.With, v.With...)
		if v.OrderBy == nil {
			v.OrderBy = s.OrderBy
		}
		if v.Limit == nil {
			v.Limit = s.Limit
		}
		return v
	}
	return s
}
