package indexer

import (
	"sqlsage/internal/analyzer"
	"sqlsage/internal/sqlast"
)

// maxCoveringCols bounds how many extra select-list columns a covering
// extension may carry.
const maxCoveringCols = 3

// tableCols accumulates filter columns for one table, equality and range
// kept apart so composites can lead with the equality set.
type tableCols struct {
	eq  []string
	rng []string
}

func (c *collector) scope(sc *analyzer.Scope) {
	explosion := sc.Joins > analyzer.JoinCountHigh

	byTable := make(map[string]*tableCols)
	var tables []string
	record := func(table, col string, isEq bool) {
		if table == "" || col == "" {
			return
		}
		tc := byTable[table]
		if tc == nil {
			tc = &tableCols{}
			byTable[table] = tc
			tables = append(tables, table)
		}
		if isEq {
			tc.eq = appendUnique(tc.eq, col)
		} else {
			tc.rng = appendUnique(tc.rng, col)
		}
	}

	if sc.Select.Where != nil {
		for _, conj := range splitAnd(sc.Select.Where) {
			c.conjunct(sc, conj, explosion, record)
		}
	}
	for _, f := range sc.Select.From {
		c.joinConditions(sc, f, explosion, record)
	}

	selectCols, coverable := selectColumns(sc)
	for _, table := range tables {
		c.composite(table, byTable[table], selectCols[table], coverable)
	}

	c.grouping(sc)
	c.ordering(sc)
}

// composite emits the candidate index for one table's accumulated filter
// columns, plus a covering extension when the select list is close enough
// to index-only.
func (c *collector) composite(table string, tc *tableCols, selected []string, coverable bool) {
	cols := append(append([]string(nil), tc.eq...), exceptCols(tc.rng, tc.eq)...)
	if len(cols) == 0 {
		return
	}

	cand := candidate{
		Suggestion: Suggestion{Table: table, Columns: cols},
		eqCols:     len(tc.eq),
	}
	switch {
	case len(tc.eq) == 0:
		cand.Priority = Medium
		cand.Reason = "Range filter in WHERE clause"
	case len(cols) > 1:
		cand.Priority = High
		cand.Reason = "Composite index for ANDed filter conditions"
	default:
		cand.Priority = High
		cand.Reason = "Equality filter in WHERE clause"
	}

	if coverable {
		residual := exceptCols(selected, cols)
		if len(residual) == 0 && len(selected) > 0 {
			cand.IndexOnly = true
		}
		c.add(cand)
		if n := len(residual); n > 0 && n <= maxCoveringCols {
			cover := cand
			cover.Covering = residual
			cover.IndexOnly = true
			cover.Priority = Low
			cover.Reason = "Covering extension for index-only scans"
			c.add(cover)
		}
		return
	}
	c.add(cand)
}

// conjunct classifies one ANDed predicate. Column-to-value equalities and
// ranges feed the composite candidate; a column-to-column equality across
// two tables is a join key even when it appears in WHERE.
func (c *collector) conjunct(sc *analyzer.Scope, p sqlast.Predicate, explosion bool, record func(table, col string, isEq bool)) {
	cmp, ok := p.(*sqlast.Comparison)
	if !ok {
		return
	}
	lcol, lok := cmp.Left.(*sqlast.ColumnRef)
	rcol, rok := cmp.Right.(*sqlast.ColumnRef)
	switch {
	case lok && rok:
		if cmp.Op != sqlast.OpEq {
			return
		}
		lt := sc.ResolveTable(lcol.Table)
		rt := sc.ResolveTable(rcol.Table)
		if lt == "" || rt == "" || lt == rt {
			return
		}
		c.joinKey(lt, lcol.Name, explosion)
		c.joinKey(rt, rcol.Name, explosion)
	case lok:
		c.valueSide(sc, lcol, cmp.Op, cmp.Right, record)
	case rok:
		c.valueSide(sc, rcol, flipOp(cmp.Op), cmp.Left, record)
	}
}

// valueSide records a column compared against a literal or parameter.
// NULL comparisons never match rows and suggest nothing.
func (c *collector) valueSide(sc *analyzer.Scope, col *sqlast.ColumnRef, op sqlast.CmpOp, value sqlast.Node, record func(table, col string, isEq bool)) {
	lit, ok := value.(*sqlast.Literal)
	if !ok || lit.Class == sqlast.LitNull {
		return
	}
	table := sc.ResolveTable(col.Table)
	if table == "" {
		return
	}
	switch op {
	case sqlast.OpEq:
		record(table, col.Name, true)
	case sqlast.OpGt, sqlast.OpGe, sqlast.OpLt, sqlast.OpLe:
		record(table, col.Name, false)
	}
}

func (c *collector) joinKey(table, col string, explosion bool) {
	cand := candidate{
		Suggestion: Suggestion{
			Table:    table,
			Columns:  []string{col},
			Priority: High,
			Reason:   "Join key column",
		},
		eqCols: 1,
	}
	if explosion {
		cand.Priority = Critical
		cand.Reason = "Join key column in a join-heavy query"
	}
	c.add(cand)
}

// joinConditions walks the joins of one FROM item. Derived tables are
// their own scopes and are not descended into here.
func (c *collector) joinConditions(sc *analyzer.Scope, n sqlast.Node, explosion bool, record func(table, col string, isEq bool)) {
	j, ok := n.(*sqlast.Join)
	if !ok {
		return
	}
	c.joinConditions(sc, j.Left, explosion, record)
	c.joinConditions(sc, j.Right, explosion, record)
	if j.On == nil {
		return
	}
	for _, conj := range splitAnd(j.On) {
		c.conjunct(sc, conj, explosion, record)
	}
}

func (c *collector) grouping(sc *analyzer.Scope) {
	if sc.Select.GroupBy == nil {
		return
	}
	for _, e := range sc.Select.GroupBy.Exprs {
		col, ok := e.(*sqlast.ColumnRef)
		if !ok {
			continue
		}
		table := sc.ResolveTable(col.Table)
		if table == "" {
			continue
		}
		c.add(candidate{Suggestion: Suggestion{
			Table:    table,
			Columns:  []string{col.Name},
			Priority: Medium,
			Reason:   "GROUP BY column",
		}})
	}
}

func (c *collector) ordering(sc *analyzer.Scope) {
	if sc.Select.OrderBy == nil {
		return
	}
	for _, item := range sc.Select.OrderBy.Items {
		col, ok := item.Expr.(*sqlast.ColumnRef)
		if !ok {
			continue
		}
		table := sc.ResolveTable(col.Table)
		if table == "" {
			continue
		}
		c.add(candidate{Suggestion: Suggestion{
			Table:    table,
			Columns:  []string{col.Name},
			Priority: Low,
			Reason:   "ORDER BY column",
		}})
	}
}

// selectColumns maps tables to the columns the select list reads from
// them. coverable is false when the list carries a star or an expression
// whose columns cannot be attributed to a table, since index-only
// eligibility can then never be proven.
func selectColumns(sc *analyzer.Scope) (map[string][]string, bool) {
	cols := make(map[string][]string)
	for _, item := range sc.Select.Columns {
		switch v := item.Expr.(type) {
		case *sqlast.Star:
			return nil, false
		case *sqlast.ColumnRef:
			table := sc.ResolveTable(v.Table)
			if table == "" {
				return nil, false
			}
			cols[table] = appendUnique(cols[table], v.Name)
		default:
			return nil, false
		}
	}
	return cols, true
}

func splitAnd(p sqlast.Predicate) []sqlast.Predicate {
	if and, ok := p.(*sqlast.And); ok {
		var out []sqlast.Predicate
		for _, op := range and.Operands {
			out = append(out, splitAnd(op)...)
		}
		return out
	}
	return []sqlast.Predicate{p}
}

func flipOp(op sqlast.CmpOp) sqlast.CmpOp {
	switch op {
	case sqlast.OpGt:
		return sqlast.OpLt
	case sqlast.OpGe:
		return sqlast.OpLe
	case sqlast.OpLt:
		return sqlast.OpGt
	case sqlast.OpLe:
		return sqlast.OpGe
	}
	return op
}

func appendUnique(cols []string, col string) []string {
	for _, c := range cols {
		if c == col {
			return cols
		}
	}
	return append(cols, col)
}

// exceptCols returns the columns of a not present in b, preserving order.
func exceptCols(a, b []string) []string {
	var out []string
	for _, col := range a {
		found := false
		for _, other := range b {
			if col == other {
				found = true
				break
			}
		}
		if !found {
			out = append(out, col)
		}
	}
	return out
}
