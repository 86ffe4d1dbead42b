package rewrite

import (
	"strconv"

	"sqlsage/internal/sqlast"
)

// simplifyRule normalizes boolean structure: it removes double negation,
// folds NOT into negatable predicates, flattens nested AND/OR chains, and
// drops operands whose value is statically known.
type simplifyRule struct{}

func (simplifyRule) Name() string { return "simplify" }

func (simplifyRule) Apply(root sqlast.Node) (sqlast.Node, bool) {
	next := sqlast.Clone(root)
	simplifyTree(next)
	return next, !sqlast.Equal(root, next)
}

// simplifyTree rewrites every predicate position in the subtree in place.
func simplifyTree(n sqlast.Node) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *sqlast.Select:
		if v.Where != nil {
			v.Where = simplifyPredicate(v.Where)
		}
		if v.Having != nil {
			v.Having = simplifyPredicate(v.Having)
		}
	case *sqlast.Join:
		if v.On != nil {
			v.On = simplifyPredicate(v.On)
		}
	}
	for _, child := range n.Children() {
		simplifyTree(child)
	}
}

// simplifyPredicate rebuilds one predicate bottom-up and returns its
// replacement. The result is never nil; dropping a whole clause is left
// to the prune rule.
func simplifyPredicate(p sqlast.Predicate) sqlast.Predicate {
	switch v := p.(type) {
	case *sqlast.Not:
		return simplifyNot(v)
	case *sqlast.And:
		return simplifyAnd(v)
	case *sqlast.Or:
		return simplifyOr(v)
	}
	return p
}

func simplifyNot(n *sqlast.Not) sqlast.Predicate {
	inner := simplifyPredicate(n.Operand)
	switch v := inner.(type) {
	case *sqlast.Not:
		return v.Operand
	case *sqlast.IsNull:
		v.Negated = !v.Negated
		return v
	case *sqlast.InList:
		v.Negated = !v.Negated
		return v
	case *sqlast.InSubquery:
		v.Negated = !v.Negated
		return v
	case *sqlast.Exists:
		v.Negated = !v.Negated
		return v
	}
	n.Operand = inner
	return n
}

func simplifyAnd(a *sqlast.And) sqlast.Predicate {
	var ops []sqlast.Predicate
	for _, op := range a.Operands {
		op = simplifyPredicate(op)
		if nested, isAnd := op.(*sqlast.And); isAnd {
			ops = append(ops, nested.Operands...)
			continue
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return a
	}

	var kept []sqlast.Predicate
	for _, op := range ops {
		val, known := truth(op)
		if known && val {
			continue
		}
		if known && !val {
			// one false operand decides the conjunction
			return op
		}
		kept = append(kept, op)
	}
	switch len(kept) {
	case 0:
		// every operand was statically true; keep one as a stand-in
		return ops[0]
	case 1:
		return kept[0]
	}
	a.Operands = kept
	return a
}

func simplifyOr(o *sqlast.Or) sqlast.Predicate {
	var ops []sqlast.Predicate
	for _, op := range o.Operands {
		op = simplifyPredicate(op)
		if nested, isOr := op.(*sqlast.Or); isOr {
			ops = append(ops, nested.Operands...)
			continue
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return o
	}

	var kept []sqlast.Predicate
	for _, op := range ops {
		val, known := truth(op)
		if known && !val {
			continue
		}
		if known && val {
			// one true operand decides the disjunction
			return op
		}
		kept = append(kept, op)
	}
	switch len(kept) {
	case 0:
		// every operand was statically false; keep one as a stand-in
		return ops[0]
	case 1:
		return kept[0]
	}
	o.Operands = kept
	return o
}

// truth reports the statically known boolean value of a predicate.
// Anything touching a column, a parameter, or NULL stays unknown;
// three-valued edge cases must never be folded.
func truth(p sqlast.Predicate) (value, known bool) {
	switch v := p.(type) {
	case *sqlast.Comparison:
		return literalComparison(v)
	case *sqlast.Not:
		val, ok := truth(v.Operand)
		return !val, ok
	case *sqlast.And:
		allKnown := true
		for _, op := range v.Operands {
			val, ok := truth(op)
			if ok && !val {
				return false, true
			}
			if !ok {
				allKnown = false
			}
		}
		return true, allKnown
	case *sqlast.Or:
		allKnown := true
		for _, op := range v.Operands {
			val, ok := truth(op)
			if ok && val {
				return true, true
			}
			if !ok {
				allKnown = false
			}
		}
		return false, allKnown
	case *sqlast.IsNull:
		lit, ok := v.Expr.(*sqlast.Literal)
		if !ok || lit.Class == sqlast.LitParam {
			return false, false
		}
		isNull := lit.Class == sqlast.LitNull
		if v.Negated {
			return !isNull, true
		}
		return isNull, true
	}
	return false, false
}

// literalComparison evaluates a comparison between two plain literals of
// the same class. NULL and parameter operands are opaque.
func literalComparison(cmp *sqlast.Comparison) (bool, bool) {
	left, lok := cmp.Left.(*sqlast.Literal)
	right, rok := cmp.Right.(*sqlast.Literal)
	if !lok || !rok {
		return false, false
	}
	for _, lit := range []*sqlast.Literal{left, right} {
		if lit.Class == sqlast.LitNull || lit.Class == sqlast.LitParam {
			return false, false
		}
	}
	if left.Class != right.Class {
		return false, false
	}

	switch left.Class {
	case sqlast.LitNumber:
		l, errL := strconv.ParseFloat(left.Text, 64)
		r, errR := strconv.ParseFloat(right.Text, 64)
		if errL != nil || errR != nil {
			return false, false
		}
		switch cmp.Op {
		case sqlast.OpEq:
			return l == r, true
		case sqlast.OpNe:
			return l != r, true
		case sqlast.OpLt:
			return l < r, true
		case sqlast.OpLe:
			return l <= r, true
		case sqlast.OpGt:
			return l > r, true
		case sqlast.OpGe:
			return l >= r, true
		}
	case sqlast.LitString:
		// equality only; ordering depends on collation
		switch cmp.Op {
		case sqlast.OpEq:
			return left.Text == right.Text, true
		case sqlast.OpNe:
			return left.Text != right.Text, true
		}
	case sqlast.LitBool:
		switch cmp.Op {
		case sqlast.OpEq:
			return left.Text == right.Text, true
		case sqlast.OpNe:
			return left.Text != right.Text, true
		}
	}
	return false, false
}
