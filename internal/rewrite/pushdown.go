package rewrite

import "sqlsage/internal/sqlast"

// pushdownRule moves WHERE conjuncts into derived tables that can evaluate
// them earlier. Repeated passes carry a predicate through stacked derived
// tables to the innermost scope that resolves it.
type pushdownRule struct{}

func (pushdownRule) Name() string { return "pushdown" }

func (pushdownRule) Apply(root sqlast.Node) (sqlast.Node, bool) {
	next := sqlast.Clone(root)
	pushdownTree(next)
	return next, !sqlast.Equal(root, next)
}

func pushdownTree(n sqlast.Node) {
	if n == nil {
		return
	}
	if sel, ok := n.(*sqlast.Select); ok {
		pushdownSelect(sel)
	}
	for _, child := range n.Children() {
		pushdownTree(child)
	}
}

func pushdownSelect(sel *sqlast.Select) {
	if sel.Where == nil || len(sel.From) == 0 {
		return
	}
	targets := pushTargets(sel)
	if len(targets) == 0 {
		return
	}

	var remaining []sqlast.Predicate
	moved := false
	for _, conj := range splitConjuncts(sel.Where) {
		target := resolveTarget(conj, targets)
		if target == nil {
			remaining = append(remaining, conj)
			continue
		}
		pushed := rewriteForInner(conj, target)
		if pushed == nil {
			remaining = append(remaining, conj)
			continue
		}
		inner := target.sub.Query.(*sqlast.Select)
		inner.Where = andWith(inner.Where, pushed)
		moved = true
	}
	if moved {
		sel.Where = combineConjuncts(remaining)
	}
}

// pushTarget is a derived table eligible to receive predicates.
type pushTarget struct {
	sub   *sqlast.Subquery
	alias string
	// output maps projected names to the inner expressions producing
	// them; nil when the subquery projects a bare star.
	output map[string]sqlast.Node
	star   bool
	// single marks the only item in FROM, so unqualified columns
	// resolve to it.
	single bool
}

func pushTargets(sel *sqlast.Select) []*pushTarget {
	var targets []*pushTarget
	for _, f := range sel.From {
		collectTargets(f, false, &targets)
	}
	if len(sel.From) == 1 && len(targets) == 1 {
		if _, ok := sel.From[0].(*sqlast.Subquery); ok {
			targets[0].single = true
		}
	}
	return targets
}

// collectTargets walks one FROM item. nullable marks branches an outer
// join can null-extend; moving a filter below the join there would stop
// it from discarding the null-extended rows.
func collectTargets(n sqlast.Node, nullable bool, out *[]*pushTarget) {
	switch v := n.(type) {
	case *sqlast.Subquery:
		if nullable {
			return
		}
		if t := newPushTarget(v); t != nil {
			*out = append(*out, t)
		}
	case *sqlast.Join:
		leftNullable := nullable || v.JoinKind == sqlast.JoinRight || v.JoinKind == sqlast.JoinFull
		rightNullable := nullable || v.JoinKind == sqlast.JoinLeft || v.JoinKind == sqlast.JoinFull
		collectTargets(v.Left, leftNullable, out)
		collectTargets(v.Right, rightNullable, out)
	}
}

// newPushTarget inspects a derived table. Aggregation, grouping, DISTINCT,
// LIMIT, window functions, and nested WITH clauses all change what a row
// means inside, so any of them blocks pushdown through the subquery.
func newPushTarget(sub *sqlast.Subquery) *pushTarget {
	inner, ok := sub.Query.(*sqlast.Select)
	if !ok || sub.Alias == "" {
		return nil
	}
	if inner.Distinct || inner.GroupBy != nil || inner.Having != nil || inner.Limit != nil || len(inner.With) > 0 {
		return nil
	}
	for _, item := range inner.Columns {
		if containsAggregate(item.Expr) || containsWindow(item.Expr) {
			return nil
		}
	}

	t := &pushTarget{sub: sub, alias: sub.Alias}
	for _, item := range inner.Columns {
		star, isStar := item.Expr.(*sqlast.Star)
		if isStar {
			// a bare star passes columns through; require a single plain
			// table inside so rewritten references stay unambiguous
			if star.Table != "" || len(inner.From) != 1 {
				return nil
			}
			if _, plain := inner.From[0].(*sqlast.Table); !plain {
				return nil
			}
			t.star = true
			continue
		}
		name := item.Alias
		if name == "" {
			if col, isCol := item.Expr.(*sqlast.ColumnRef); isCol {
				name = col.Name
			}
		}
		if name == "" {
			continue
		}
		if t.output == nil {
			t.output = make(map[string]sqlast.Node)
		}
		t.output[name] = item.Expr
	}
	if t.star && t.output != nil {
		return nil
	}
	if !t.star && t.output == nil {
		return nil
	}
	return t
}

// resolveTarget finds the single target every column of the conjunct
// resolves to. Conjuncts carrying subqueries, no columns at all, or
// columns from more than one source stay where they are.
func resolveTarget(conj sqlast.Predicate, targets []*pushTarget) *pushTarget {
	if containsSubquery(conj) {
		return nil
	}
	cols := columnRefs(conj)
	if len(cols) == 0 {
		return nil
	}
	var resolved *pushTarget
	for _, col := range cols {
		t := targetFor(col, targets)
		if t == nil || (resolved != nil && t != resolved) {
			return nil
		}
		resolved = t
	}
	return resolved
}

func targetFor(col *sqlast.ColumnRef, targets []*pushTarget) *pushTarget {
	for _, t := range targets {
		if col.Table != "" {
			if col.Table != t.alias {
				continue
			}
		} else if !t.single {
			continue
		}
		if t.star {
			return t
		}
		if _, ok := t.output[col.Name]; ok {
			return t
		}
		return nil
	}
	return nil
}

// rewriteForInner clones the conjunct and re-expresses its columns in the
// inner scope. Outputs computed from expressions rather than plain columns
// cannot be re-expressed in place, so they block the move.
func rewriteForInner(conj sqlast.Predicate, t *pushTarget) sqlast.Predicate {
	cloned := sqlast.ClonePredicate(conj)
	ok := true
	rewriteColumns(cloned, t, &ok)
	if !ok {
		return nil
	}
	return cloned
}

func rewriteColumns(n sqlast.Node, t *pushTarget, ok *bool) {
	if col, isCol := n.(*sqlast.ColumnRef); isCol {
		if t.star {
			col.Table = ""
			return
		}
		src, plain := t.output[col.Name].(*sqlast.ColumnRef)
		if !plain {
			*ok = false
			return
		}
		col.Table = src.Table
		col.Name = src.Name
		return
	}
	for _, child := range n.Children() {
		rewriteColumns(child, t, ok)
	}
}

// --- Conjunct plumbing ---

func splitConjuncts(p sqlast.Predicate) []sqlast.Predicate {
	if and, ok := p.(*sqlast.And); ok {
		var out []sqlast.Predicate
		for _, op := range and.Operands {
			out = append(out, splitConjuncts(op)...)
		}
		return out
	}
	return []sqlast.Predicate{p}
}

func combineConjuncts(preds []sqlast.Predicate) sqlast.Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return &sqlast.And{Operands: preds}
}

func andWith(existing, extra sqlast.Predicate) sqlast.Predicate {
	if existing == nil {
		return extra
	}
	if and, ok := existing.(*sqlast.And); ok {
		and.Operands = append(and.Operands, extra)
		return and
	}
	return &sqlast.And{Operands: []sqlast.Predicate{existing, extra}}
}

// --- Tree probes ---

func containsSubquery(n sqlast.Node) bool {
	return sqlast.ContainsKind(n, sqlast.KindSubquery) ||
		sqlast.ContainsKind(n, sqlast.KindInSubquery) ||
		sqlast.ContainsKind(n, sqlast.KindExists)
}

func containsAggregate(n sqlast.Node) bool {
	return sqlast.ContainsKind(n, sqlast.KindAggregate)
}

func containsWindow(n sqlast.Node) bool {
	found := false
	sqlast.Walk(n, func(c sqlast.Node, _ sqlast.Path) bool {
		if f, ok := c.(*sqlast.FuncCall); ok && f.Window {
			found = true
		}
		return !found
	})
	return found
}

func columnRefs(n sqlast.Node) []*sqlast.ColumnRef {
	var cols []*sqlast.ColumnRef
	sqlast.Walk(n, func(c sqlast.Node, _ sqlast.Path) bool {
		if col, ok := c.(*sqlast.ColumnRef); ok {
			cols = append(cols, col)
		}
		return true
	})
	return cols
}
