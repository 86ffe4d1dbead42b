package rewrite

import (
	"fmt"

	"sqlsage/internal/sqlast"
)

// Alternatives builds independently derived forms of a query: a
// formatted-only rendering, plus a CTE refactor whenever the query holds
// at least one hoistable subquery.
func Alternatives(root sqlast.Node) []Alternative {
	if root == nil {
		return nil
	}
	alts := []Alternative{{
		Label:       "Formatted Only",
		SQL:         sqlast.PrintPretty(root),
		Description: "Cleanly formatted original query without structural changes",
	}}
	if refactored, hoisted := hoistSubqueries(root); hoisted > 0 {
		noun := "subquery"
		if hoisted > 1 {
			noun = "subqueries"
		}
		alts = append(alts, Alternative{
			Label:       "CTE Refactor",
			SQL:         sqlast.PrintPretty(refactored),
			Description: fmt.Sprintf("Hoists %d %s into named common table expressions for readability", hoisted, noun),
		})
	}
	return alts
}

// hoistSubqueries lifts hoistable subqueries into a WITH clause on a copy
// of the tree. A subquery qualifies when it is not correlated with its
// enclosing scopes and its exact shape occurs only once.
func hoistSubqueries(root sqlast.Node) (sqlast.Node, int) {
	next := sqlast.Clone(root)

	counts := make(map[string]int)
	countCandidates(next, counts)

	h := &hoister{counts: counts, used: usedNames(next)}
	h.rewrite(next)
	if len(h.ctes) == 0 {
		return next, 0
	}

	switch v := next.(type) {
	case *sqlast.Select:
		v.With = append(v.With, h.ctes...)
	case *sqlast.SetOp:
		v.With = append(v.With, h.ctes...)
	default:
		return next, 0
	}
	return next, len(h.ctes)
}

// countCandidates tallies subquery bodies by canonical shape. Bodies of
// existing CTEs are skipped: a reference hoisted out of one would point
// at a CTE defined later in the WITH list.
func countCandidates(n sqlast.Node, counts map[string]int) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *sqlast.CTE:
		return
	case *sqlast.Subquery:
		counts[sqlast.EncodeCanonical(v.Query)]++
	case *sqlast.InSubquery:
		counts[sqlast.EncodeCanonical(v.Query)]++
	case *sqlast.Exists:
		counts[sqlast.EncodeCanonical(v.Query)]++
	}
	for _, child := range n.Children() {
		countCandidates(child, counts)
	}
}

type hoister struct {
	counts map[string]int
	used   map[string]bool
	ctes   []*sqlast.CTE
	seq    int
}

func (h *hoister) hoistable(query sqlast.Node) bool {
	return h.counts[sqlast.EncodeCanonical(query)] == 1 && !correlated(query)
}

// hoist registers the query as a new CTE and returns its name. The body
// moves wholesale; nothing inside it is hoisted separately.
func (h *hoister) hoist(query sqlast.Node) string {
	name := h.nextName()
	h.ctes = append(h.ctes, &sqlast.CTE{Name: name, Query: query})
	return name
}

func (h *hoister) nextName() string {
	for {
		h.seq++
		name := fmt.Sprintf("cte_%d", h.seq)
		if !h.used[name] {
			h.used[name] = true
			return name
		}
	}
}

// rewrite replaces hoistable subqueries under n with references to their
// new CTEs. Bodies of pre-existing CTEs are left alone.
func (h *hoister) rewrite(n sqlast.Node) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *sqlast.CTE:
		return
	case *sqlast.Select:
		for i := range v.From {
			v.From[i] = h.fromItem(v.From[i])
		}
		for _, item := range v.Columns {
			h.rewrite(item)
		}
		if v.Where != nil {
			h.rewrite(v.Where)
		}
		if v.GroupBy != nil {
			h.rewrite(v.GroupBy)
		}
		if v.Having != nil {
			h.rewrite(v.Having)
		}
		if v.OrderBy != nil {
			h.rewrite(v.OrderBy)
		}
		return
	case *sqlast.InSubquery:
		h.rewrite(v.Expr)
		if h.hoistable(v.Query) {
			v.Query = cteSelect(h.hoist(v.Query))
			return
		}
		h.rewrite(v.Query)
		return
	case *sqlast.Exists:
		if h.hoistable(v.Query) {
			v.Query = cteSelect(h.hoist(v.Query))
			return
		}
		h.rewrite(v.Query)
		return
	case *sqlast.Subquery:
		// expression position; FROM position goes through fromItem
		if h.hoistable(v.Query) {
			v.Query = cteSelect(h.hoist(v.Query))
			return
		}
		h.rewrite(v.Query)
		return
	}
	for _, child := range n.Children() {
		h.rewrite(child)
	}
}

// fromItem replaces a hoistable derived table with a plain reference to
// its CTE, keeping the original alias.
func (h *hoister) fromItem(n sqlast.Node) sqlast.Node {
	switch v := n.(type) {
	case *sqlast.Subquery:
		if h.hoistable(v.Query) {
			return &sqlast.Table{Name: h.hoist(v.Query), Alias: v.Alias}
		}
		h.rewrite(v.Query)
		return v
	case *sqlast.Join:
		v.Left = h.fromItem(v.Left)
		v.Right = h.fromItem(v.Right)
		if v.On != nil {
			h.rewrite(v.On)
		}
		return v
	}
	return n
}

// cteSelect builds the replacement body for a subquery hoisted out of a
// predicate position.
func cteSelect(name string) *sqlast.Select {
	return &sqlast.Select{
		Columns: []*sqlast.SelectItem{{Expr: &sqlast.Star{}}},
		From:    []sqlast.Node{&sqlast.Table{Name: name}},
	}
}

// correlated reports whether the query references a qualifier that none of
// its own tables, aliases, or CTEs declare.
func correlated(query sqlast.Node) bool {
	declared := make(map[string]bool)
	sqlast.Walk(query, func(n sqlast.Node, _ sqlast.Path) bool {
		switch v := n.(type) {
		case *sqlast.Table:
			declared[v.Ref()] = true
		case *sqlast.Subquery:
			if v.Alias != "" {
				declared[v.Alias] = true
			}
		case *sqlast.CTE:
			declared[v.Name] = true
		}
		return true
	})
	corr := false
	sqlast.Walk(query, func(n sqlast.Node, _ sqlast.Path) bool {
		if col, ok := n.(*sqlast.ColumnRef); ok && col.Table != "" && !declared[col.Table] {
			corr = true
		}
		return !corr
	})
	return corr
}

// usedNames collects every CTE and table name in the tree so generated
// CTE names never collide with them.
func usedNames(root sqlast.Node) map[string]bool {
	names := make(map[string]bool)
	sqlast.Walk(root, func(n sqlast.Node, _ sqlast.Path) bool {
		switch v := n.(type) {
		case *sqlast.CTE:
			names[v.Name] = true
		case *sqlast.Table:
			names[v.Name] = true
		}
		return true
	})
	return names
}
