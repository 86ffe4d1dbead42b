package sqlast

// Clone deep-copies a tree. Rewrite rules clone before transforming so the
// input tree is never mutated.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *Select:
		return CloneSelect(v)
	case *SelectItem:
		return &SelectItem{Expr: Clone(v.Expr), Alias: v.Alias}
	case *CTE:
		return &CTE{Name: v.Name, Query: Clone(v.Query)}
	case *Table:
		out := *v
		return &out
	case *Join:
		return &Join{
			JoinKind: v.JoinKind,
			Left:     Clone(v.Left),
			Right:    Clone(v.Right),
			On:       ClonePredicate(v.On),
		}
	case *Subquery:
		return &Subquery{Query: Clone(v.Query), Alias: v.Alias}
	case *SetOp:
		out := &SetOp{Op: v.Op, All: v.All, Left: Clone(v.Left), Right: Clone(v.Right)}
		for _, cte := range v.With {
			out.With = append(out.With, Clone(cte).(*CTE))
		}
		if v.OrderBy != nil {
			out.OrderBy = Clone(v.OrderBy).(*OrderBy)
		}
		if v.Limit != nil {
			out.Limit = Clone(v.Limit).(*Limit)
		}
		return out
	case *Comparison:
		return &Comparison{Op: v.Op, Left: Clone(v.Left), Right: Clone(v.Right)}
	case *And:
		return &And{Operands: clonePredicates(v.Operands)}
	case *Or:
		return &Or{Operands: clonePredicates(v.Operands)}
	case *Not:
		return &Not{Operand: ClonePredicate(v.Operand)}
	case *InList:
		return &InList{Expr: Clone(v.Expr), Values: cloneNodes(v.Values), Negated: v.Negated}
	case *InSubquery:
		return &InSubquery{Expr: Clone(v.Expr), Query: Clone(v.Query), Negated: v.Negated}
	case *Exists:
		return &Exists{Query: Clone(v.Query), Negated: v.Negated}
	case *IsNull:
		return &IsNull{Expr: Clone(v.Expr), Negated: v.Negated}
	case *OrderBy:
		return &OrderBy{Items: cloneOrderItems(v.Items)}
	case *OrderItem:
		return &OrderItem{Expr: Clone(v.Expr), Desc: v.Desc}
	case *Limit:
		out := *v
		return &out
	case *GroupBy:
		return &GroupBy{Exprs: cloneNodes(v.Exprs)}
	case *Aggregate:
		return &Aggregate{Func: v.Func, Arg: Clone(v.Arg), Star: v.Star, Distinct: v.Distinct}
	case *FuncCall:
		return &FuncCall{
			Name:      v.Name,
			Args:      cloneNodes(v.Args),
			Window:    v.Window,
			Partition: cloneNodes(v.Partition),
			OrderIn:   cloneOrderItems(v.OrderIn),
		}
	case *ColumnRef:
		out := *v
		return &out
	case *Star:
		out := *v
		return &out
	case *Literal:
		out := *v
		return &out
	case *Cast:
		return &Cast{Expr: Clone(v.Expr), Type: v.Type}
	default:
		panic("sqlast: clone of unknown node kind " + n.Kind().String())
	}
}

func CloneSelect(s *Select) *Select {
	if s == nil {
		return nil
	}
	out := &Select{Distinct: s.Distinct}
	for _, c := range s.With {
		out.With = append(out.With, Clone(c).(*CTE))
	}
	for _, c := range s.Columns {
		out.Columns = append(out.Columns, Clone(c).(*SelectItem))
	}
	out.From = cloneNodes(s.From)
	out.Where = ClonePredicate(s.Where)
	if s.GroupBy != nil {
		out.GroupBy = Clone(s.GroupBy).(*GroupBy)
	}
	out.Having = ClonePredicate(s.Having)
	if s.OrderBy != nil {
		out.OrderBy = Clone(s.OrderBy).(*OrderBy)
	}
	if s.Limit != nil {
		out.Limit = Clone(s.Limit).(*Limit)
	}
	return out
}

func ClonePredicate(p Predicate) Predicate {
	if p == nil {
		return nil
	}
	return Clone(p).(Predicate)
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}

func cloneOrderItems(items []*OrderItem) []*OrderItem {
	if items == nil {
		return nil
	}
	out := make([]*OrderItem, len(items))
	for i, item := range items {
		out[i] = &OrderItem{Expr: Clone(item.Expr), Desc: item.Desc}
	}
	return out
}

func clonePredicates(preds []Predicate) []Predicate {
	if preds == nil {
		return nil
	}
	out := make([]Predicate, len(preds))
	for i, p := range preds {
		out[i] = ClonePredicate(p)
	}
	return out
}
