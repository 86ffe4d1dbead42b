package sqlast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pganalyze/pg_query_go/v6/parser"
)

// ParseError reports a syntax error from the grammar engine.
type ParseError struct {
	Message  string
	Position int // 1-based byte offset in the normalized statement, 0 when unknown
}

func (e *ParseError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
	}
	return "parse error: " + e.Message
}

// ErrUnsupportedFeature marks SQL that parses cleanly but has no analysis
// model, such as statement kinds other than SELECT. Constructs that can be
// approximated instead produce warnings on the Result.
var ErrUnsupportedFeature = errors.New("unsupported feature")

// Result is a parsed statement: the normalized tree, the dialect that was
// applied, and warnings for constructs that were approximated rather than
// modeled exactly. Warnings never fail a parse.
type Result struct {
	Root     Node
	Dialect  Dialect
	Warnings []string
}

// Parse normalizes dialect surface syntax, runs the grammar engine and
// converts its tree into the closed Node variant set. An empty dialect
// requests detection.
func Parse(sql string, dialect Dialect) (*Result, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, &ParseError{Message: "empty statement"}
	}
	if dialect == "" {
		dialect = DetectDialect(sql)
	}

	norm, warnings := normalizeDialect(sql, dialect)
	norm = numberParamMarks(norm)

	parsed, err := pg_query.Parse(norm)
	if err != nil {
		return nil, parseErrorFrom(err)
	}
	if len(parsed.Stmts) == 0 {
		return nil, &ParseError{Message: "empty statement"}
	}
	if len(parsed.Stmts) > 1 {
		warnings = append(warnings, "multiple statements provided; only the first is analyzed")
	}

	sel := parsed.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return nil, fmt.Errorf("%w: only SELECT statements are analyzed", ErrUnsupportedFeature)
	}

	c := &converter{warnings: warnings}
	root := c.selectStmt(sel)
	return &Result{Root: root, Dialect: dialect, Warnings: c.warnings}, nil
}

func parseErrorFrom(err error) *ParseError {
	var pqErr *parser.Error
	if errors.As(err, &pqErr) {
		return &ParseError{Message: pqErr.Message, Position: int(pqErr.Cursorpos)}
	}
	return &ParseError{Message: err.Error()}
}

// numberParamMarks rewrites bare ? placeholders into numbered parameters
// the grammar engine accepts. String literals and comments are untouched.
func numberParamMarks(sql string) string {
	if !strings.Contains(sql, "?") {
		return sql
	}
	n := 0
	return rewriteCode(sql, func(code string) string {
		var b strings.Builder
		for i := 0; i < len(code); i++ {
			if code[i] == '?' {
				n++
				b.WriteString("$" + strconv.Itoa(n))
				continue
			}
			b.WriteByte(code[i])
		}
		return b.String()
	})
}

type converter struct {
	warnings []string
}

func (c *converter) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *converter) selectStmt(stmt *pg_query.SelectStmt) Node {
	if stmt == nil {
		return &Select{}
	}
	if stmt.Op != pg_query.SetOperation_SETOP_NONE {
		op := SetUnion
		switch stmt.Op {
		case pg_query.SetOperation_SETOP_INTERSECT:
			op = SetIntersect
		case pg_query.SetOperation_SETOP_EXCEPT:
			op = SetExcept
		}
		setop := &SetOp{
			With:  c.ctes(stmt.WithClause),
			Op:    op,
			All:   stmt.All,
			Left:  c.selectStmt(stmt.Larg),
			Right: c.selectStmt(stmt.Rarg),
		}
		if items := c.sortItems(stmt.SortClause); len(items) > 0 {
			setop.OrderBy = &OrderBy{Items: items}
		}
		setop.Limit = c.limit(stmt.LimitCount, stmt.LimitOffset)
		return setop
	}

	if len(stmt.ValuesLists) > 0 {
		c.warnf("VALUES list treated as an opaque row source")
		return &Select{}
	}

	sel := &Select{
		With:     c.ctes(stmt.WithClause),
		Distinct: len(stmt.DistinctClause) > 0,
	}

	for _, target := range stmt.TargetList {
		res := target.GetResTarget()
		if res == nil {
			continue
		}
		sel.Columns = append(sel.Columns, &SelectItem{Expr: c.expr(res.Val), Alias: res.Name})
	}

	for _, from := range stmt.FromClause {
		if item := c.fromItem(from); item != nil {
			sel.From = append(sel.From, item)
		}
	}

	if stmt.WhereClause != nil {
		sel.Where = c.predicate(stmt.WhereClause)
	}
	if len(stmt.GroupClause) > 0 {
		gb := &GroupBy{}
		for _, g := range stmt.GroupClause {
			gb.Exprs = append(gb.Exprs, c.expr(g))
		}
		sel.GroupBy = gb
	}
	if stmt.HavingClause != nil {
		sel.Having = c.predicate(stmt.HavingClause)
	}
	if items := c.sortItems(stmt.SortClause); len(items) > 0 {
		sel.OrderBy = &OrderBy{Items: items}
	}
	sel.Limit = c.limit(stmt.LimitCount, stmt.LimitOffset)

	return sel
}

func (c *converter) ctes(with *pg_query.WithClause) []*CTE {
	if with == nil {
		return nil
	}
	var out []*CTE
	for _, cteNode := range with.Ctes {
		cte := cteNode.GetCommonTableExpr()
		if cte == nil {
			continue
		}
		inner := cte.Ctequery.GetSelectStmt()
		if inner == nil {
			c.warnf("CTE %s is not a SELECT and was skipped", cte.Ctename)
			continue
		}
		out = append(out, &CTE{Name: cte.Ctename, Query: c.selectStmt(inner)})
	}
	return out
}

func (c *converter) limit(count, offset *pg_query.Node) *Limit {
	l := &Limit{}
	if count != nil {
		if v, ok := intConst(count); ok {
			l.Count, l.HasCount = v, true
		} else {
			c.warnf("non-constant LIMIT cannot be analyzed and was dropped")
		}
	}
	if offset != nil {
		if v, ok := intConst(offset); ok {
			l.Offset, l.HasOffset = v, true
		} else {
			c.warnf("non-constant OFFSET cannot be analyzed and was dropped")
		}
	}
	if !l.HasCount && !l.HasOffset {
		return nil
	}
	return l
}

func intConst(node *pg_query.Node) (int64, bool) {
	ac := node.GetAConst()
	if ac == nil || ac.Isnull {
		return 0, false
	}
	if iv := ac.GetIval(); iv != nil {
		return int64(iv.Ival), true
	}
	return 0, false
}

func (c *converter) fromItem(node *pg_query.Node) Node {
	if rv := node.GetRangeVar(); rv != nil {
		return &Table{Name: relName(rv), Alias: aliasOf(rv.Alias)}
	}
	if je := node.GetJoinExpr(); je != nil {
		return c.join(je)
	}
	if rs := node.GetRangeSubselect(); rs != nil {
		inner := rs.Subquery.GetSelectStmt()
		if inner == nil {
			c.warnf("unsupported derived table in FROM")
			return &Subquery{Query: &Select{}, Alias: aliasOf(rs.Alias)}
		}
		return &Subquery{Query: c.selectStmt(inner), Alias: aliasOf(rs.Alias)}
	}
	c.warnf("unsupported FROM item %s was skipped", nodeTag(node))
	return nil
}

func relName(rv *pg_query.RangeVar) string {
	var parts []string
	if rv.Catalogname != "" {
		parts = append(parts, rv.Catalogname)
	}
	if rv.Schemaname != "" {
		parts = append(parts, rv.Schemaname)
	}
	parts = append(parts, rv.Relname)
	return strings.Join(parts, ".")
}

func aliasOf(a *pg_query.Alias) string {
	if a == nil {
		return ""
	}
	return a.Aliasname
}

func (c *converter) join(je *pg_query.JoinExpr) Node {
	kind := JoinInner
	switch je.Jointype {
	case pg_query.JoinType_JOIN_LEFT:
		kind = JoinLeft
	case pg_query.JoinType_JOIN_RIGHT:
		kind = JoinRight
	case pg_query.JoinType_JOIN_FULL:
		kind = JoinFull
	}

	left := c.fromItem(je.Larg)
	right := c.fromItem(je.Rarg)
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}

	var on Predicate
	switch {
	case je.Quals != nil:
		on = c.predicate(je.Quals)
	case len(je.UsingClause) > 0:
		on = c.usingPredicate(je.UsingClause, left, right)
	case je.IsNatural:
		c.warnf("NATURAL JOIN condition is implicit and was not modeled")
	case kind == JoinInner:
		kind = JoinCross
	}

	return &Join{JoinKind: kind, Left: left, Right: right, On: on}
}

func (c *converter) usingPredicate(using []*pg_query.Node, left, right Node) Predicate {
	lref := sourceRef(left)
	rref := sourceRef(right)

	var ops []Predicate
	for _, u := range using {
		str := u.GetString_()
		if str == nil {
			continue
		}
		ops = append(ops, &Comparison{
			Op:    OpEq,
			Left:  &ColumnRef{Table: lref, Name: str.Sval},
			Right: &ColumnRef{Table: rref, Name: str.Sval},
		})
	}
	switch len(ops) {
	case 0:
		return nil
	case 1:
		return ops[0]
	}
	return &And{Operands: ops}
}

func sourceRef(n Node) string {
	switch v := n.(type) {
	case *Table:
		return v.Ref()
	case *Subquery:
		return v.Alias
	}
	return ""
}

// predicate converts an expression in boolean position. Bare expressions
// (WHERE active) become explicit comparisons against true, which is
// equivalent in predicate position.
func (c *converter) predicate(node *pg_query.Node) Predicate {
	expr := c.expr(node)
	if p, ok := expr.(Predicate); ok {
		return p
	}
	return &Comparison{Op: OpEq, Left: expr, Right: &Literal{Class: LitBool, Text: "true"}}
}

func (c *converter) expr(node *pg_query.Node) Node {
	if node == nil {
		return &Literal{Class: LitNull, Text: "NULL"}
	}

	switch {
	case node.GetColumnRef() != nil:
		return c.columnRef(node.GetColumnRef())
	case node.GetAConst() != nil:
		return literalOf(node.GetAConst())
	case node.GetParamRef() != nil:
		return &Literal{Class: LitParam, Text: "$" + strconv.Itoa(int(node.GetParamRef().Number))}
	case node.GetTypeCast() != nil:
		return c.typeCast(node.GetTypeCast())
	case node.GetAExpr() != nil:
		return c.aExpr(node.GetAExpr())
	case node.GetBoolExpr() != nil:
		return c.boolExpr(node.GetBoolExpr())
	case node.GetSubLink() != nil:
		return c.subLink(node.GetSubLink())
	case node.GetNullTest() != nil:
		nt := node.GetNullTest()
		return &IsNull{
			Expr:    c.expr(nt.Arg),
			Negated: nt.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL,
		}
	case node.GetFuncCall() != nil:
		return c.funcCall(node.GetFuncCall())
	case node.GetCoalesceExpr() != nil:
		return &FuncCall{Name: "coalesce", Args: c.exprList(node.GetCoalesceExpr().Args)}
	case node.GetCaseExpr() != nil:
		return c.caseExpr(node.GetCaseExpr())
	default:
		c.warnf("unsupported expression %s treated as opaque", nodeTag(node))
		return &FuncCall{Name: "expr"}
	}
}

func (c *converter) exprList(nodes []*pg_query.Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, c.expr(n))
	}
	return out
}

func (c *converter) sortItems(nodes []*pg_query.Node) []*OrderItem {
	var items []*OrderItem
	for _, s := range nodes {
		sb := s.GetSortBy()
		if sb == nil {
			continue
		}
		items = append(items, &OrderItem{
			Expr: c.expr(sb.Node),
			Desc: sb.SortbyDir == pg_query.SortByDir_SORTBY_DESC,
		})
	}
	return items
}

func (c *converter) columnRef(cr *pg_query.ColumnRef) Node {
	var parts []string
	star := false
	for _, f := range cr.Fields {
		if str := f.GetString_(); str != nil {
			parts = append(parts, str.Sval)
		} else if f.GetAStar() != nil {
			star = true
		}
	}

	if star {
		table := ""
		if len(parts) > 0 {
			table = parts[len(parts)-1]
		}
		return &Star{Table: table}
	}

	switch len(parts) {
	case 0:
		return &ColumnRef{}
	case 1:
		return &ColumnRef{Name: parts[0]}
	default:
		// schema qualifiers beyond table.column are dropped
		return &ColumnRef{Table: parts[len(parts)-2], Name: parts[len(parts)-1]}
	}
}

func literalOf(ac *pg_query.A_Const) *Literal {
	if ac.Isnull {
		return &Literal{Class: LitNull, Text: "NULL"}
	}
	if iv := ac.GetIval(); iv != nil {
		return &Literal{Class: LitNumber, Text: strconv.Itoa(int(iv.Ival))}
	}
	if fv := ac.GetFval(); fv != nil {
		return &Literal{Class: LitNumber, Text: fv.Fval}
	}
	if sv := ac.GetSval(); sv != nil {
		return &Literal{Class: LitString, Text: sv.Sval}
	}
	if bv := ac.GetBoolval(); bv != nil {
		if bv.Boolval {
			return &Literal{Class: LitBool, Text: "true"}
		}
		return &Literal{Class: LitBool, Text: "false"}
	}
	return &Literal{Class: LitNull, Text: "NULL"}
}

var typeNameMap = map[string]string{
	"int2":   "smallint",
	"int4":   "integer",
	"int8":   "bigint",
	"float4": "real",
	"float8": "double precision",
	"bool":   "boolean",
	"bpchar": "char",
}

func (c *converter) typeCast(tc *pg_query.TypeCast) Node {
	name := "unknown"
	if tc.TypeName != nil && len(tc.TypeName.Names) > 0 {
		if str := tc.TypeName.Names[len(tc.TypeName.Names)-1].GetString_(); str != nil {
			name = str.Sval
		}
	}
	if mapped, ok := typeNameMap[name]; ok {
		name = mapped
	}
	return &Cast{Expr: c.expr(tc.Arg), Type: name}
}

func (c *converter) aExpr(ae *pg_query.A_Expr) Node {
	switch ae.Kind {
	case pg_query.A_Expr_Kind_AEXPR_IN:
		expr := c.expr(ae.Lexpr)
		negated := opName(ae) == "<>"
		if lst := ae.Rexpr.GetList(); lst != nil {
			return &InList{Expr: expr, Values: c.exprList(lst.Items), Negated: negated}
		}
		c.warnf("unsupported IN expression treated as opaque")
		return &FuncCall{Name: "expr"}

	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN,
		pg_query.A_Expr_Kind_AEXPR_BETWEEN_SYM, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN_SYM:
		return c.between(ae)

	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		op := OpLike
		if strings.HasPrefix(opName(ae), "!") {
			op = OpNotLike
		}
		return &Comparison{Op: op, Left: c.expr(ae.Lexpr), Right: c.expr(ae.Rexpr)}

	case pg_query.A_Expr_Kind_AEXPR_ILIKE:
		op := OpILike
		if strings.HasPrefix(opName(ae), "!") {
			op = OpNotILike
		}
		return &Comparison{Op: op, Left: c.expr(ae.Lexpr), Right: c.expr(ae.Rexpr)}

	case pg_query.A_Expr_Kind_AEXPR_OP:
		name := opName(ae)
		if op, ok := comparisonOps[name]; ok {
			return &Comparison{Op: op, Left: c.expr(ae.Lexpr), Right: c.expr(ae.Rexpr)}
		}
		// arithmetic and other operators stay function-shaped
		if ae.Lexpr == nil {
			return &FuncCall{Name: name, Args: []Node{c.expr(ae.Rexpr)}}
		}
		return &FuncCall{Name: name, Args: []Node{c.expr(ae.Lexpr), c.expr(ae.Rexpr)}}

	default:
		c.warnf("unsupported operator expression treated as opaque")
		return &FuncCall{Name: "expr"}
	}
}

var comparisonOps = map[string]CmpOp{
	"=":  OpEq,
	"<>": OpNe,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

// between lowers BETWEEN into an explicit range conjunction, which keeps
// the predicate variant set small and lets the index advisor see two
// plain range comparisons.
func (c *converter) between(ae *pg_query.A_Expr) Node {
	lst := ae.Rexpr.GetList()
	if lst == nil || len(lst.Items) < 2 {
		c.warnf("malformed BETWEEN expression treated as opaque")
		return &FuncCall{Name: "expr"}
	}

	expr := c.expr(ae.Lexpr)
	rng := &And{Operands: []Predicate{
		&Comparison{Op: OpGe, Left: expr, Right: c.expr(lst.Items[0])},
		&Comparison{Op: OpLe, Left: Clone(expr), Right: c.expr(lst.Items[1])},
	}}

	if ae.Kind == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN ||
		ae.Kind == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN_SYM {
		return &Not{Operand: rng}
	}
	return rng
}

func opName(ae *pg_query.A_Expr) string {
	if len(ae.Name) == 0 {
		return ""
	}
	if str := ae.Name[len(ae.Name)-1].GetString_(); str != nil {
		return str.Sval
	}
	return ""
}

func (c *converter) boolExpr(be *pg_query.BoolExpr) Node {
	switch be.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		ops := make([]Predicate, 0, len(be.Args))
		for _, arg := range be.Args {
			ops = append(ops, c.predicate(arg))
		}
		return &And{Operands: ops}
	case pg_query.BoolExprType_OR_EXPR:
		ops := make([]Predicate, 0, len(be.Args))
		for _, arg := range be.Args {
			ops = append(ops, c.predicate(arg))
		}
		return &Or{Operands: ops}
	case pg_query.BoolExprType_NOT_EXPR:
		if len(be.Args) == 0 {
			return &Literal{Class: LitNull, Text: "NULL"}
		}
		return negate(c.predicate(be.Args[0]))
	}
	c.warnf("unsupported boolean expression treated as opaque")
	return &FuncCall{Name: "expr"}
}

// negate folds NOT into the operand where the variant carries its own
// negation flag; NOT IN over a subquery must surface as a negated
// InSubquery for the null-pitfall check to see it.
func negate(p Predicate) Predicate {
	switch v := p.(type) {
	case *InSubquery:
		return &InSubquery{Expr: v.Expr, Query: v.Query, Negated: !v.Negated}
	case *InList:
		return &InList{Expr: v.Expr, Values: v.Values, Negated: !v.Negated}
	case *Exists:
		return &Exists{Query: v.Query, Negated: !v.Negated}
	case *IsNull:
		return &IsNull{Expr: v.Expr, Negated: !v.Negated}
	case *Not:
		return v.Operand
	}
	return &Not{Operand: p}
}

func (c *converter) subLink(sl *pg_query.SubLink) Node {
	sub := sl.Subselect.GetSelectStmt()
	if sub == nil {
		c.warnf("unsupported subquery expression treated as opaque")
		return &FuncCall{Name: "expr"}
	}
	q := c.selectStmt(sub)

	switch sl.SubLinkType {
	case pg_query.SubLinkType_ANY_SUBLINK:
		name := subLinkOpName(sl)
		if name == "" || name == "=" {
			return &InSubquery{Expr: c.expr(sl.Testexpr), Query: q}
		}
		c.warnf("quantified ANY comparison treated as opaque")
		return &FuncCall{Name: "any", Args: []Node{c.expr(sl.Testexpr), &Subquery{Query: q}}}
	case pg_query.SubLinkType_ALL_SUBLINK:
		c.warnf("quantified ALL comparison treated as opaque")
		return &FuncCall{Name: "all", Args: []Node{c.expr(sl.Testexpr), &Subquery{Query: q}}}
	case pg_query.SubLinkType_EXISTS_SUBLINK:
		return &Exists{Query: q}
	default:
		return &Subquery{Query: q}
	}
}

func subLinkOpName(sl *pg_query.SubLink) string {
	if len(sl.OperName) == 0 {
		return ""
	}
	if str := sl.OperName[len(sl.OperName)-1].GetString_(); str != nil {
		return str.Sval
	}
	return ""
}

var aggregateFuncs = map[string]bool{
	"count": true,
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
}

func (c *converter) funcCall(fc *pg_query.FuncCall) Node {
	name := ""
	if len(fc.Funcname) > 0 {
		if str := fc.Funcname[len(fc.Funcname)-1].GetString_(); str != nil {
			name = strings.ToLower(str.Sval)
		}
	}

	if fc.Over != nil {
		if fc.Over.Name != "" {
			c.warnf("named window %s is not modeled", fc.Over.Name)
		}
		return &FuncCall{
			Name:      name,
			Args:      c.exprList(fc.Args),
			Window:    true,
			Partition: c.exprList(fc.Over.PartitionClause),
			OrderIn:   c.sortItems(fc.Over.OrderClause),
		}
	}

	if aggregateFuncs[name] {
		agg := &Aggregate{Func: name, Distinct: fc.AggDistinct}
		if fc.AggStar || len(fc.Args) == 0 {
			agg.Star = true
		} else {
			agg.Arg = c.expr(fc.Args[0])
		}
		return agg
	}

	return &FuncCall{Name: name, Args: c.exprList(fc.Args)}
}

// caseExpr keeps CASE opaque but exposes its operand expressions so
// column references inside remain visible to traversals.
func (c *converter) caseExpr(ce *pg_query.CaseExpr) Node {
	call := &FuncCall{Name: "case"}
	if ce.Arg != nil {
		call.Args = append(call.Args, c.expr(ce.Arg))
	}
	for _, w := range ce.Args {
		cw := w.GetCaseWhen()
		if cw == nil {
			continue
		}
		call.Args = append(call.Args, c.expr(cw.Expr), c.expr(cw.Result))
	}
	if ce.Defresult != nil {
		call.Args = append(call.Args, c.expr(ce.Defresult))
	}
	return call
}

func nodeTag(node *pg_query.Node) string {
	tag := strings.TrimPrefix(fmt.Sprintf("%T", node.Node), "*pg_query.Node_")
	return strings.ToLower(tag)
}
