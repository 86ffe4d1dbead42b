package analyzer

import (
	"fmt"
	"strings"

	"sqlsage/internal/sqlast"
)

const (
	KindSelectStar       = "select_star"
	KindMissingWhere     = "missing_where"
	KindLeadingWildcard  = "leading_wildcard"
	KindFunctionOnColumn = "function_on_column"
	KindOrCondition      = "or_condition"
	KindImplicitCast     = "implicit_cast"
	KindUnboundedLimit   = "unbounded_limit"
	KindNullPitfallNotIn = "null_pitfall_not_in"
	KindJoinExplosion    = "join_explosion"
)

const (
	JoinCountHigh     = 3 // joins above this raise a finding
	JoinCountCritical = 4 // joins above this escalate to Critical
)

// numericSuffixes mark columns assumed numeric when no schema hint is
// given. Columns matching neither a hint nor a suffix are left
// unclassified and never reported as implicit casts.
var numericSuffixes = []string{"_id", "_count", "_num", "_qty"}

type check func(sc *Scope, dc *detectContext) []Finding

var defaultChecks = []check{
	checkSelectStar,
	checkMissingWhere,
	checkLeadingWildcard,
	checkFunctionOnColumn,
	checkOrCondition,
	checkImplicitCast,
	checkUnboundedLimit,
	checkNullPitfallNotIn,
	checkJoinExplosion,
}

func checkSelectStar(sc *Scope, dc *detectContext) []Finding {
	var findings []Finding
	for i, item := range sc.Select.Columns {
		star, ok := item.Expr.(*sqlast.Star)
		if !ok {
			continue
		}

		table := sc.ResolveTable(star.Table)
		desc := "SELECT * reads every column"
		if table != "" {
			desc = fmt.Sprintf("SELECT * reads every column of %s", table)
		}

		findings = append(findings, Finding{
			Kind:        KindSelectStar,
			Severity:    High,
			Table:       table,
			Column:      "*",
			Path:        extend(sc.Path, len(sc.Select.With)+i).String(),
			Description: desc,
			Suggestion:  "List only the columns the query needs to reduce I/O and keep covering indexes usable",
		})
	}
	return findings
}

func checkMissingWhere(sc *Scope, dc *detectContext) []Finding {
	if sc.Depth != 0 {
		return nil
	}
	if sc.Select.Where != nil || sc.Select.Limit != nil {
		return nil
	}

	// Scopes reading only CTEs scan data that was already filtered where
	// the CTE was defined.
	reads := false
	for _, f := range sc.Select.From {
		if readsBaseData(f, dc) {
			reads = true
			break
		}
	}
	if !reads {
		return nil
	}

	table := ""
	if len(sc.Tables) == 1 {
		table = sc.Tables[0].Name
	}

	return []Finding{{
		Kind:        KindMissingWhere,
		Severity:    High,
		Table:       table,
		Path:        sc.Path.String(),
		Description: "query has no WHERE clause and may scan entire tables",
		Suggestion:  "Add a WHERE clause, or a LIMIT if the full result set is not needed",
	}}
}

func checkLeadingWildcard(sc *Scope, dc *detectContext) []Finding {
	var findings []Finding
	walkScope(sc.Select, sc.Path, func(n sqlast.Node, path sqlast.Path) bool {
		cmp, ok := n.(*sqlast.Comparison)
		if !ok {
			return true
		}
		switch cmp.Op {
		case sqlast.OpLike, sqlast.OpNotLike, sqlast.OpILike, sqlast.OpNotILike:
		default:
			return true
		}

		lit, ok := cmp.Right.(*sqlast.Literal)
		if !ok || lit.Class != sqlast.LitString || !strings.HasPrefix(lit.Text, "%") {
			return true
		}

		table, column := columnLocation(sc, cmp.Left)
		findings = append(findings, Finding{
			Kind:        KindLeadingWildcard,
			Severity:    High,
			Table:       table,
			Column:      column,
			Path:        path.String(),
			Description: fmt.Sprintf("pattern '%s' starts with a wildcard, which prevents index usage", lit.Text),
			Suggestion:  "Anchor the pattern at the start, or use a trigram or full-text index",
		})
		return true
	})
	return findings
}

func checkFunctionOnColumn(sc *Scope, dc *detectContext) []Finding {
	if sc.Select.Where == nil {
		return nil
	}

	var findings []Finding
	walkScope(sc.Select.Where, sc.wherePath(), func(n sqlast.Node, path sqlast.Path) bool {
		cmp, ok := n.(*sqlast.Comparison)
		if !ok {
			return true
		}

		for _, side := range []sqlast.Node{cmp.Left, cmp.Right} {
			name, ok := wrappingCall(side)
			if !ok {
				continue
			}
			col := firstColumn(side)
			if col == nil {
				continue
			}

			table, column := columnLocation(sc, col)
			findings = append(findings, Finding{
				Kind:        KindFunctionOnColumn,
				Severity:    Medium,
				Table:       table,
				Column:      column,
				Path:        path.String(),
				Description: fmt.Sprintf("%s applied to column %s in the WHERE clause prevents index usage", name, col),
				Suggestion:  "Compare the bare column, or create an expression index matching the call",
			})
			break
		}
		return true
	})
	return findings
}

func checkOrCondition(sc *Scope, dc *detectContext) []Finding {
	if sc.Select.Where == nil {
		return nil
	}

	var found sqlast.Path
	walkScope(sc.Select.Where, sc.wherePath(), func(n sqlast.Node, path sqlast.Path) bool {
		if found != nil {
			return false
		}
		if _, ok := n.(*sqlast.Or); ok {
			found = path
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}

	return []Finding{{
		Kind:        KindOrCondition,
		Severity:    Low,
		Path:        found.String(),
		Description: "OR conditions can prevent effective index usage",
		Suggestion:  "Consider rewriting as UNION ALL of simpler queries if each branch is selective",
	}}
}

func checkImplicitCast(sc *Scope, dc *detectContext) []Finding {
	if sc.Select.Where == nil {
		return nil
	}

	var findings []Finding
	walkScope(sc.Select.Where, sc.wherePath(), func(n sqlast.Node, path sqlast.Path) bool {
		cmp, ok := n.(*sqlast.Comparison)
		if !ok {
			return true
		}

		col, lit := comparisonOperands(cmp)
		if col == nil || lit == nil {
			return true
		}

		colClass := dc.columnClass(sc, col)
		var desc string
		switch {
		case colClass == classNumeric && lit.Class == sqlast.LitString:
			desc = fmt.Sprintf("string literal '%s' compared to numeric column %s forces an implicit cast", lit.Text, col)
		case colClass == classString && lit.Class == sqlast.LitNumber:
			desc = fmt.Sprintf("numeric literal %s compared to string column %s forces an implicit cast", lit.Text, col)
		default:
			return true
		}

		table, column := columnLocation(sc, col)
		findings = append(findings, Finding{
			Kind:        KindImplicitCast,
			Severity:    Medium,
			Table:       table,
			Column:      column,
			Path:        path.String(),
			Description: desc,
			Suggestion:  "Match the literal type to the column type so indexes stay usable",
		})
		return true
	})
	return findings
}

func checkUnboundedLimit(sc *Scope, dc *detectContext) []Finding {
	sel := sc.Select
	if sel.Limit == nil || sel.OrderBy != nil {
		return nil
	}

	idx := len(sel.With) + len(sel.Columns) + len(sel.From)
	if sel.Where != nil {
		idx++
	}
	if sel.GroupBy != nil {
		idx++
	}
	if sel.Having != nil {
		idx++
	}

	return []Finding{{
		Kind:        KindUnboundedLimit,
		Severity:    Medium,
		Path:        extend(sc.Path, idx).String(),
		Description: "LIMIT without ORDER BY returns an unstable row set across repeated calls",
		Suggestion:  "Add an ORDER BY on a unique key to make the result deterministic",
	}}
}

func checkNullPitfallNotIn(sc *Scope, dc *detectContext) []Finding {
	var findings []Finding
	walkScope(sc.Select, sc.Path, func(n sqlast.Node, path sqlast.Path) bool {
		switch v := n.(type) {
		case *sqlast.InSubquery:
			if !v.Negated || subqueryProvenNotNull(v.Query) {
				return true
			}
			table, column := columnLocation(sc, v.Expr)
			findings = append(findings, Finding{
				Kind:        KindNullPitfallNotIn,
				Severity:    Critical,
				Table:       table,
				Column:      column,
				Path:        path.String(),
				Description: "NOT IN returns no rows when the subquery yields a NULL",
				Suggestion:  "Use NOT EXISTS, or filter the subquery column with IS NOT NULL",
			})
		case *sqlast.InList:
			if !v.Negated || !listContainsNull(v.Values) {
				return true
			}
			table, column := columnLocation(sc, v.Expr)
			findings = append(findings, Finding{
				Kind:        KindNullPitfallNotIn,
				Severity:    Critical,
				Table:       table,
				Column:      column,
				Path:        path.String(),
				Description: "NOT IN list contains NULL, so the predicate is never true",
				Suggestion:  "Remove the NULL from the list or handle it with a separate IS NULL branch",
			})
		}
		return true
	})
	return findings
}

func checkJoinExplosion(sc *Scope, dc *detectContext) []Finding {
	if sc.Joins <= JoinCountHigh {
		return nil
	}

	severity := High
	if sc.Joins > JoinCountCritical {
		severity = Critical
	}

	return []Finding{{
		Kind:        KindJoinExplosion,
		Severity:    severity,
		Path:        sc.Path.String(),
		Description: fmt.Sprintf("query scope chains %d joins; intermediate results may grow uncontrollably", sc.Joins),
		Suggestion:  "Split the query or pre-aggregate intermediate results, and verify every join key is indexed",
	}}
}

// --- Helpers ---

func extend(p sqlast.Path, idx int) sqlast.Path {
	return append(p[:len(p):len(p)], idx)
}

// ResolveTable maps a column qualifier to its table name. An empty
// qualifier resolves only when the scope reads a single table.
func (sc *Scope) ResolveTable(qualifier string) string {
	if qualifier == "" {
		if len(sc.Tables) == 1 {
			return sc.Tables[0].Name
		}
		return ""
	}
	for _, t := range sc.Tables {
		if t.Ref() == qualifier {
			return t.Name
		}
	}
	return qualifier
}

// columnLocation derives the table and column of a finding from an
// expression, tolerating non-column expressions.
func columnLocation(sc *Scope, n sqlast.Node) (table, column string) {
	col, ok := n.(*sqlast.ColumnRef)
	if !ok {
		col = firstColumn(n)
	}
	if col == nil {
		return "", ""
	}
	return sc.ResolveTable(col.Table), col.Name
}

// firstColumn returns the first column reference in the subtree, without
// crossing into nested query scopes.
func firstColumn(n sqlast.Node) *sqlast.ColumnRef {
	var found *sqlast.ColumnRef
	walkScope(n, nil, func(c sqlast.Node, _ sqlast.Path) bool {
		if found != nil {
			return false
		}
		if col, ok := c.(*sqlast.ColumnRef); ok {
			found = col
			return false
		}
		return true
	})
	return found
}

// wrappingCall reports whether the expression is a function or cast
// applied over its operand, with a printable name. Arithmetic operators
// do not count.
func wrappingCall(n sqlast.Node) (string, bool) {
	switch v := n.(type) {
	case *sqlast.FuncCall:
		if sqlast.IsOperator(v.Name) || v.Window {
			return "", false
		}
		return fmt.Sprintf("function %s()", v.Name), true
	case *sqlast.Cast:
		return fmt.Sprintf("cast to %s", v.Type), true
	}
	return "", false
}

// comparisonOperands splits a comparison into its column and literal
// sides regardless of which side each is written on.
func comparisonOperands(cmp *sqlast.Comparison) (*sqlast.ColumnRef, *sqlast.Literal) {
	if col, ok := cmp.Left.(*sqlast.ColumnRef); ok {
		if lit, ok := cmp.Right.(*sqlast.Literal); ok {
			return col, lit
		}
	}
	if col, ok := cmp.Right.(*sqlast.ColumnRef); ok {
		if lit, ok := cmp.Left.(*sqlast.Literal); ok {
			return col, lit
		}
	}
	return nil, nil
}

type typeClass int

const (
	classUnknown typeClass = iota
	classNumeric
	classString
)

// columnClass infers the type class of a column: a schema hint when one
// is declared, otherwise a conservative name heuristic. Unknown columns
// are never flagged.
func (dc *detectContext) columnClass(sc *Scope, col *sqlast.ColumnRef) typeClass {
	if schema := dc.opts.Schema; len(schema) > 0 {
		table := sc.ResolveTable(col.Table)
		if table != "" {
			if typ, ok := schema[table+"."+col.Name]; ok {
				return classOfType(typ)
			}
		}
		if typ, ok := schema[col.Name]; ok {
			return classOfType(typ)
		}
	}

	if col.Name == "id" {
		return classNumeric
	}
	for _, suffix := range numericSuffixes {
		if strings.HasSuffix(col.Name, suffix) {
			return classNumeric
		}
	}
	return classUnknown
}

func classOfType(sqlType string) typeClass {
	t := strings.ToLower(sqlType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)

	for _, marker := range []string{"int", "serial", "numeric", "decimal", "real", "double", "float", "money"} {
		if strings.Contains(t, marker) {
			return classNumeric
		}
	}
	for _, marker := range []string{"char", "text", "uuid", "citext"} {
		if strings.Contains(t, marker) {
			return classString
		}
	}
	return classUnknown
}

// subqueryProvenNotNull reports whether the subquery's projected column
// carries an IS NOT NULL filter among its top-level conjuncts.
func subqueryProvenNotNull(query sqlast.Node) bool {
	sel, ok := query.(*sqlast.Select)
	if !ok || len(sel.Columns) == 0 {
		return false
	}
	col, ok := sel.Columns[0].Expr.(*sqlast.ColumnRef)
	if !ok || sel.Where == nil {
		return false
	}

	for _, p := range conjuncts(sel.Where) {
		isNull, ok := p.(*sqlast.IsNull)
		if !ok || !isNull.Negated {
			continue
		}
		ref, ok := isNull.Expr.(*sqlast.ColumnRef)
		if ok && ref.Name == col.Name {
			return true
		}
	}
	return false
}

// readsBaseData reports whether a FROM item reaches a base table or a
// derived table, as opposed to only named CTE results.
func readsBaseData(n sqlast.Node, dc *detectContext) bool {
	switch v := n.(type) {
	case *sqlast.Table:
		return !dc.cteNames[v.Name]
	case *sqlast.Join:
		return readsBaseData(v.Left, dc) || readsBaseData(v.Right, dc)
	case *sqlast.Subquery:
		return true
	}
	return false
}

// conjuncts flattens nested conjunctions into their leaf predicates.
func conjuncts(p sqlast.Predicate) []sqlast.Predicate {
	and, ok := p.(*sqlast.And)
	if !ok {
		return []sqlast.Predicate{p}
	}
	var out []sqlast.Predicate
	for _, op := range and.Operands {
		out = append(out, conjuncts(op)...)
	}
	return out
}

func listContainsNull(values []sqlast.Node) bool {
	for _, v := range values {
		if lit, ok := v.(*sqlast.Literal); ok && lit.Class == sqlast.LitNull {
			return true
		}
	}
	return false
}
