package sqlast

import (
	"strconv"
	"strings"
)

// Print renders a tree as a single-line SQL statement. The output is
// deterministic: identical trees always print identically.
func Print(n Node) string {
	p := &printer{}
	p.writeNode(n)
	return p.b.String()
}

// PrintPretty renders a tree with one clause per line and indented
// derived tables.
func PrintPretty(n Node) string {
	p := &printer{pretty: true}
	p.writeNode(n)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	pretty bool
	depth  int
}

func (p *printer) write(s string) {
	p.b.WriteString(s)
}

// sep separates top-level clauses: a newline at the current indent when
// pretty, a single space otherwise.
func (p *printer) sep() {
	if p.pretty {
		p.write("\n")
		p.write(strings.Repeat("  ", p.depth))
		return
	}
	p.write(" ")
}

func (p *printer) writeNode(n Node) {
	switch v := n.(type) {
	case *Select:
		p.writeSelect(v)
	case *SetOp:
		p.writeSetOp(v)
	case *SelectItem:
		p.writeNode(v.Expr)
		if v.Alias != "" {
			p.write(" AS " + v.Alias)
		}
	case *Table:
		p.write(v.Name)
		if v.Alias != "" {
			p.write(" AS " + v.Alias)
		}
	case *Join:
		p.writeJoin(v)
	case *Subquery:
		p.writeSubquery(v.Query)
		if v.Alias != "" {
			p.write(" AS " + v.Alias)
		}
	case *CTE:
		p.write(v.Name + " AS ")
		p.writeSubquery(v.Query)
	case *Comparison:
		p.writeNode(v.Left)
		p.write(" " + v.Op.String() + " ")
		p.writeNode(v.Right)
	case *And:
		for i, op := range v.Operands {
			if i > 0 {
				p.write(" AND ")
			}
			p.writeBoolOperand(op, true)
		}
	case *Or:
		for i, op := range v.Operands {
			if i > 0 {
				p.write(" OR ")
			}
			p.writeBoolOperand(op, false)
		}
	case *Not:
		p.write("NOT ")
		switch v.Operand.(type) {
		case *And, *Or:
			p.write("(")
			p.writeNode(v.Operand)
			p.write(")")
		default:
			p.writeNode(v.Operand)
		}
	case *InList:
		p.writeNode(v.Expr)
		if v.Negated {
			p.write(" NOT")
		}
		p.write(" IN (")
		for i, val := range v.Values {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(val)
		}
		p.write(")")
	case *InSubquery:
		p.writeNode(v.Expr)
		if v.Negated {
			p.write(" NOT")
		}
		p.write(" IN ")
		p.writeInline(v.Query)
	case *Exists:
		if v.Negated {
			p.write("NOT ")
		}
		p.write("EXISTS ")
		p.writeInline(v.Query)
	case *IsNull:
		p.writeNode(v.Expr)
		if v.Negated {
			p.write(" IS NOT NULL")
		} else {
			p.write(" IS NULL")
		}
	case *OrderBy:
		p.write("ORDER BY ")
		for i, item := range v.Items {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(item)
		}
	case *OrderItem:
		p.writeNode(v.Expr)
		if v.Desc {
			p.write(" DESC")
		}
	case *Limit:
		p.writeLimit(v)
	case *GroupBy:
		p.write("GROUP BY ")
		for i, e := range v.Exprs {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(e)
		}
	case *Aggregate:
		p.write(strings.ToUpper(v.Func) + "(")
		if v.Distinct {
			p.write("DISTINCT ")
		}
		if v.Star {
			p.write("*")
		} else if v.Arg != nil {
			p.writeNode(v.Arg)
		}
		p.write(")")
	case *FuncCall:
		p.writeFuncCall(v)
	case *ColumnRef:
		p.write(v.String())
	case *Star:
		if v.Table != "" {
			p.write(v.Table + ".")
		}
		p.write("*")
	case *Literal:
		p.writeLiteral(v)
	case *Cast:
		p.write("CAST(")
		p.writeNode(v.Expr)
		p.write(" AS " + v.Type + ")")
	default:
		panic("sqlast: print of unknown node kind " + n.Kind().String())
	}
}

func (p *printer) writeSelect(s *Select) {
	if len(s.With) > 0 {
		p.write("WITH ")
		for i, cte := range s.With {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(cte)
		}
		p.sep()
	}

	p.write("SELECT ")
	if s.Distinct {
		p.write("DISTINCT ")
	}
	for i, col := range s.Columns {
		if i > 0 {
			p.write(", ")
		}
		p.writeNode(col)
	}

	if len(s.From) > 0 {
		p.sep()
		p.write("FROM ")
		for i, f := range s.From {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(f)
		}
	}
	if s.Where != nil {
		p.sep()
		p.write("WHERE ")
		p.writeNode(s.Where)
	}
	if s.GroupBy != nil {
		p.sep()
		p.writeNode(s.GroupBy)
	}
	if s.Having != nil {
		p.sep()
		p.write("HAVING ")
		p.writeNode(s.Having)
	}
	if s.OrderBy != nil {
		p.sep()
		p.writeNode(s.OrderBy)
	}
	if s.Limit != nil {
		p.sep()
		p.writeNode(s.Limit)
	}
}

func (p *printer) writeSetOp(s *SetOp) {
	if len(s.With) > 0 {
		p.write("WITH ")
		for i, cte := range s.With {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(cte)
		}
		p.sep()
	}
	p.writeSetArm(s.Left)
	p.sep()
	p.write(s.Op.String())
	if s.All {
		p.write(" ALL")
	}
	p.sep()
	p.writeSetArm(s.Right)
	if s.OrderBy != nil {
		p.sep()
		p.writeNode(s.OrderBy)
	}
	if s.Limit != nil {
		p.sep()
		p.writeNode(s.Limit)
	}
}

// writeSetArm parenthesizes arms carrying their own ORDER BY or LIMIT,
// which would otherwise bind to the combined result.
func (p *printer) writeSetArm(n Node) {
	switch v := n.(type) {
	case *Select:
		if v.OrderBy != nil || v.Limit != nil {
			p.write("(")
			p.writeNode(v)
			p.write(")")
			return
		}
	case *SetOp:
		if v.OrderBy != nil || v.Limit != nil {
			p.write("(")
			p.writeNode(v)
			p.write(")")
			return
		}
	}
	p.writeNode(n)
}

func (p *printer) writeJoin(j *Join) {
	p.writeNode(j.Left)
	p.sep()
	switch j.JoinKind {
	case JoinLeft:
		p.write("LEFT JOIN ")
	case JoinRight:
		p.write("RIGHT JOIN ")
	case JoinFull:
		p.write("FULL JOIN ")
	case JoinCross:
		p.write("CROSS JOIN ")
	default:
		p.write("JOIN ")
	}
	if nested, ok := j.Right.(*Join); ok {
		p.write("(")
		p.writeJoin(nested)
		p.write(")")
	} else {
		p.writeNode(j.Right)
	}
	if j.On != nil {
		p.write(" ON ")
		p.writeNode(j.On)
	}
}

// writeSubquery renders a derived table or CTE body; in pretty mode the
// body moves one indent level deeper.
func (p *printer) writeSubquery(q Node) {
	if !p.pretty {
		p.write("(")
		p.writeNode(q)
		p.write(")")
		return
	}
	p.write("(")
	p.depth++
	p.sep()
	p.writeNode(q)
	p.depth--
	p.sep()
	p.write(")")
}

// writeInline renders a subquery in expression position on a single line
// regardless of pretty mode.
func (p *printer) writeInline(q Node) {
	inner := &printer{}
	inner.writeNode(q)
	p.write("(" + inner.b.String() + ")")
}

// writeBoolOperand parenthesizes OR under AND, where SQL precedence
// would otherwise regroup the operands.
func (p *printer) writeBoolOperand(op Predicate, underAnd bool) {
	if _, ok := op.(*Or); ok && underAnd {
		p.write("(")
		p.writeNode(op)
		p.write(")")
		return
	}
	p.writeNode(op)
}

func (p *printer) writeLimit(l *Limit) {
	wrote := false
	if l.HasCount {
		p.write("LIMIT ")
		p.write(strconv.FormatInt(l.Count, 10))
		wrote = true
	}
	if l.HasOffset {
		if wrote {
			p.write(" ")
		}
		p.write("OFFSET ")
		p.write(strconv.FormatInt(l.Offset, 10))
	}
}

func (p *printer) writeFuncCall(f *FuncCall) {
	if IsOperator(f.Name) {
		switch len(f.Args) {
		case 1:
			p.write(f.Name)
			p.writeNode(f.Args[0])
			return
		case 2:
			p.write("(")
			p.writeNode(f.Args[0])
			p.write(" " + f.Name + " ")
			p.writeNode(f.Args[1])
			p.write(")")
			return
		}
	}
	p.write(strings.ToUpper(f.Name) + "(")
	for i, a := range f.Args {
		if i > 0 {
			p.write(", ")
		}
		p.writeNode(a)
	}
	p.write(")")
	if f.Window {
		p.writeOver(f)
	}
}

func (p *printer) writeOver(f *FuncCall) {
	p.write(" OVER (")
	if len(f.Partition) > 0 {
		p.write("PARTITION BY ")
		for i, e := range f.Partition {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(e)
		}
	}
	if len(f.OrderIn) > 0 {
		if len(f.Partition) > 0 {
			p.write(" ")
		}
		p.write("ORDER BY ")
		for i, item := range f.OrderIn {
			if i > 0 {
				p.write(", ")
			}
			p.writeNode(item)
		}
	}
	p.write(")")
}

func (p *printer) writeLiteral(l *Literal) {
	switch l.Class {
	case LitString:
		p.write("'" + strings.ReplaceAll(l.Text, "'", "''") + "'")
	case LitNull:
		p.write("NULL")
	default:
		p.write(l.Text)
	}
}

// IsOperator reports whether a FuncCall name is an operator symbol
// rather than a function identifier.
func IsOperator(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch r {
		case '+', '-', '*', '/', '%', '|', '&', '^', '#', '~', '<', '>', '=', '!', '@':
		default:
			return false
		}
	}
	return true
}
