package sqlast

// Kind identifies the concrete type behind a Node.
type Kind int

const (
	KindSelect Kind = iota
	KindSelectItem
	KindCTE
	KindTable
	KindJoin
	KindSubquery
	KindSetOp
	KindComparison
	KindAnd
	KindOr
	KindNot
	KindInList
	KindInSubquery
	KindExists
	KindIsNull
	KindOrderBy
	KindOrderItem
	KindLimit
	KindGroupBy
	KindAggregate
	KindFuncCall
	KindColumnRef
	KindStar
	KindLiteral
	KindCast
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindSelectItem:
		return "select_item"
	case KindCTE:
		return "cte"
	case KindTable:
		return "table"
	case KindJoin:
		return "join"
	case KindSubquery:
		return "subquery"
	case KindSetOp:
		return "set_operation"
	case KindComparison:
		return "comparison"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindInList:
		return "in_list"
	case KindInSubquery:
		return "in_subquery"
	case KindExists:
		return "exists"
	case KindIsNull:
		return "is_null"
	case KindOrderBy:
		return "order_by"
	case KindOrderItem:
		return "order_item"
	case KindLimit:
		return "limit"
	case KindGroupBy:
		return "group_by"
	case KindAggregate:
		return "aggregate"
	case KindFuncCall:
		return "function_call"
	case KindColumnRef:
		return "column_ref"
	case KindStar:
		return "star"
	case KindLiteral:
		return "literal"
	case KindCast:
		return "cast"
	default:
		return "unknown"
	}
}

// Node is one element of the normalized query tree. Trees are treated as
// immutable once built: transformations clone and rebuild rather than
// mutate in place.
type Node interface {
	Kind() Kind
	// Children returns direct children in canonical order. Path addressing
	// depends on this order being stable across calls.
	Children() []Node
}

// Predicate marks nodes that may appear in boolean position (WHERE, HAVING,
// JOIN ON).
type Predicate interface {
	Node
	predicate()
}

type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (j JoinKind) String() string {
	switch j {
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	case JoinCross:
		return "cross"
	default:
		return "inner"
	}
}

type SetOpKind int

const (
	SetUnion SetOpKind = iota
	SetIntersect
	SetExcept
)

func (s SetOpKind) String() string {
	switch s {
	case SetIntersect:
		return "INTERSECT"
	case SetExcept:
		return "EXCEPT"
	default:
		return "UNION"
	}
}

type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
	OpNotLike
	OpILike
	OpNotILike
)

func (o CmpOp) String() string {
	switch o {
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	case OpILike:
		return "ILIKE"
	case OpNotILike:
		return "NOT ILIKE"
	default:
		return "="
	}
}

type LiteralClass int

const (
	LitString LiteralClass = iota
	LitNumber
	LitBool
	LitNull
	LitParam // bind placeholder; value and type unknown at analysis time
)

func (c LiteralClass) String() string {
	switch c {
	case LitNumber:
		return "number"
	case LitBool:
		return "bool"
	case LitNull:
		return "null"
	case LitParam:
		return "param"
	default:
		return "string"
	}
}

// Select is the root of a single query scope.
type Select struct {
	With     []*CTE
	Distinct bool
	Columns  []*SelectItem
	From     []Node // *Table, *Join or *Subquery
	Where    Predicate
	GroupBy  *GroupBy
	Having   Predicate
	OrderBy  *OrderBy
	Limit    *Limit
}

func (s *Select) Kind() Kind { return KindSelect }

func (s *Select) Children() []Node {
	var out []Node
	for _, c := range s.With {
		out = append(out, c)
	}
	for _, c := range s.Columns {
		out = append(out, c)
	}
	out = append(out, s.From...)
	if s.Where != nil {
		out = append(out, s.Where)
	}
	if s.GroupBy != nil {
		out = append(out, s.GroupBy)
	}
	if s.Having != nil {
		out = append(out, s.Having)
	}
	if s.OrderBy != nil {
		out = append(out, s.OrderBy)
	}
	if s.Limit != nil {
		out = append(out, s.Limit)
	}
	return out
}

// SelectItem is one projection entry, with an optional output alias.
type SelectItem struct {
	Expr  Node
	Alias string
}

func (s *SelectItem) Kind() Kind       { return KindSelectItem }
func (s *SelectItem) Children() []Node { return []Node{s.Expr} }

type CTE struct {
	Name  string
	Query Node // *Select or *SetOp
}

func (c *CTE) Kind() Kind       { return KindCTE }
func (c *CTE) Children() []Node { return []Node{c.Query} }

type Table struct {
	Name  string
	Alias string
}

func (t *Table) Kind() Kind       { return KindTable }
func (t *Table) Children() []Node { return nil }

// Ref is the name predicates use to qualify columns of this table.
func (t *Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

type Join struct {
	JoinKind JoinKind
	Left     Node // *Table, *Join or *Subquery
	Right    Node
	On       Predicate // nil for cross joins
}

func (j *Join) Kind() Kind { return KindJoin }

func (j *Join) Children() []Node {
	out := []Node{j.Left, j.Right}
	if j.On != nil {
		out = append(out, j.On)
	}
	return out
}

// Subquery is a derived table in FROM position.
type Subquery struct {
	Query Node // *Select or *SetOp
	Alias string
}

func (s *Subquery) Kind() Kind       { return KindSubquery }
func (s *Subquery) Children() []Node { return []Node{s.Query} }

// SetOp combines two query arms. WITH, ORDER BY and LIMIT written after
// the last arm belong to the combined result, so they live here rather
// than on either arm.
type SetOp struct {
	With    []*CTE
	Op      SetOpKind
	All     bool
	Left    Node // *Select or *SetOp
	Right   Node
	OrderBy *OrderBy
	Limit   *Limit
}

func (s *SetOp) Kind() Kind { return KindSetOp }

func (s *SetOp) Children() []Node {
	out := make([]Node, 0, len(s.With)+4)
	for _, cte := range s.With {
		out = append(out, cte)
	}
	out = append(out, s.Left, s.Right)
	if s.OrderBy != nil {
		out = append(out, s.OrderBy)
	}
	if s.Limit != nil {
		out = append(out, s.Limit)
	}
	return out
}

type Comparison struct {
	Op    CmpOp
	Left  Node
	Right Node
}

func (c *Comparison) Kind() Kind       { return KindComparison }
func (c *Comparison) Children() []Node { return []Node{c.Left, c.Right} }
func (c *Comparison) predicate()       {}

// And is an n-ary conjunction. Nested conjunctions are flattened by the
// rewrite engine, not by construction.
type And struct {
	Operands []Predicate
}

func (a *And) Kind() Kind { return KindAnd }

func (a *And) Children() []Node {
	out := make([]Node, len(a.Operands))
	for i, p := range a.Operands {
		out[i] = p
	}
	return out
}

func (a *And) predicate() {}

type Or struct {
	Operands []Predicate
}

func (o *Or) Kind() Kind { return KindOr }

func (o *Or) Children() []Node {
	out := make([]Node, len(o.Operands))
	for i, p := range o.Operands {
		out[i] = p
	}
	return out
}

func (o *Or) predicate() {}

type Not struct {
	Operand Predicate
}

func (n *Not) Kind() Kind       { return KindNot }
func (n *Not) Children() []Node { return []Node{n.Operand} }
func (n *Not) predicate()       {}

type InList struct {
	Expr    Node
	Values  []Node
	Negated bool
}

func (i *InList) Kind() Kind { return KindInList }

func (i *InList) Children() []Node {
	out := []Node{i.Expr}
	out = append(out, i.Values...)
	return out
}

func (i *InList) predicate() {}

type InSubquery struct {
	Expr    Node
	Query   Node // *Select or *SetOp
	Negated bool
}

func (i *InSubquery) Kind() Kind       { return KindInSubquery }
func (i *InSubquery) Children() []Node { return []Node{i.Expr, i.Query} }
func (i *InSubquery) predicate()       {}

type Exists struct {
	Query   Node // *Select or *SetOp
	Negated bool
}

func (e *Exists) Kind() Kind       { return KindExists }
func (e *Exists) Children() []Node { return []Node{e.Query} }
func (e *Exists) predicate()       {}

type IsNull struct {
	Expr    Node
	Negated bool // IS NOT NULL
}

func (i *IsNull) Kind() Kind       { return KindIsNull }
func (i *IsNull) Children() []Node { return []Node{i.Expr} }
func (i *IsNull) predicate()       {}

type OrderBy struct {
	Items []*OrderItem
}

func (o *OrderBy) Kind() Kind { return KindOrderBy }

func (o *OrderBy) Children() []Node {
	out := make([]Node, len(o.Items))
	for i, item := range o.Items {
		out[i] = item
	}
	return out
}

type OrderItem struct {
	Expr Node
	Desc bool
}

func (o *OrderItem) Kind() Kind       { return KindOrderItem }
func (o *OrderItem) Children() []Node { return []Node{o.Expr} }

type Limit struct {
	Count     int64
	HasCount  bool
	Offset    int64
	HasOffset bool
}

func (l *Limit) Kind() Kind       { return KindLimit }
func (l *Limit) Children() []Node { return nil }

type GroupBy struct {
	Exprs []Node
}

func (g *GroupBy) Kind() Kind       { return KindGroupBy }
func (g *GroupBy) Children() []Node { return g.Exprs }

// Aggregate is a call to one of the standard aggregate functions. Window
// functions stay FuncCall with Window set.
type Aggregate struct {
	Func     string // lowercase: count, sum, avg, min, max
	Arg      Node   // nil when Star
	Star     bool
	Distinct bool
}

func (a *Aggregate) Kind() Kind { return KindAggregate }

func (a *Aggregate) Children() []Node {
	if a.Arg == nil {
		return nil
	}
	return []Node{a.Arg}
}

type FuncCall struct {
	Name      string // lowercase; operator text for arithmetic ("+", "||")
	Args      []Node
	Window    bool // carries an OVER clause
	Partition []Node
	OrderIn   []*OrderItem // ORDER BY inside the OVER clause
}

func (f *FuncCall) Kind() Kind { return KindFuncCall }

func (f *FuncCall) Children() []Node {
	if len(f.Partition) == 0 && len(f.OrderIn) == 0 {
		return f.Args
	}
	out := make([]Node, 0, len(f.Args)+len(f.Partition)+len(f.OrderIn))
	out = append(out, f.Args...)
	out = append(out, f.Partition...)
	for _, item := range f.OrderIn {
		out = append(out, item)
	}
	return out
}

type ColumnRef struct {
	Table string // qualifier as written (alias or table name), may be empty
	Name  string
}

func (c *ColumnRef) Kind() Kind       { return KindColumnRef }
func (c *ColumnRef) Children() []Node { return nil }

func (c *ColumnRef) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

// Star is a wildcard projection entry, optionally qualified (t.*).
type Star struct {
	Table string
}

func (s *Star) Kind() Kind       { return KindStar }
func (s *Star) Children() []Node { return nil }

type Literal struct {
	Class LiteralClass
	Text  string // source text without quotes; "NULL" for LitNull
}

func (l *Literal) Kind() Kind       { return KindLiteral }
func (l *Literal) Children() []Node { return nil }

type Cast struct {
	Expr Node
	Type string
}

func (c *Cast) Kind() Kind       { return KindCast }
func (c *Cast) Children() []Node { return []Node{c.Expr} }
