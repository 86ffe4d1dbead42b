package rewrite

import (
	"fmt"
	"math/rand"
	"testing"

	"sqlsage/internal/sqlast"
)

func col(name string) *sqlast.ColumnRef { return &sqlast.ColumnRef{Name: name} }

func num(text string) *sqlast.Literal {
	return &sqlast.Literal{Class: sqlast.LitNumber, Text: text}
}

func eq(name, value string) *sqlast.Comparison {
	return &sqlast.Comparison{Left: col(name), Op: sqlast.OpEq, Right: num(value)}
}

// constCmp builds 1 = 1 or 1 = 0.
func constCmp(value bool) *sqlast.Comparison {
	right := "0"
	if value {
		right = "1"
	}
	return &sqlast.Comparison{Left: num("1"), Op: sqlast.OpEq, Right: num(right)}
}

func TestSimplify_DoubleNegation(t *testing.T) {
	p := &sqlast.Not{Operand: &sqlast.Not{Operand: eq("a", "1")}}

	got := simplifyPredicate(p)

	cmp, ok := got.(*sqlast.Comparison)
	if !ok {
		t.Fatalf("simplifyPredicate = %T, want *Comparison", got)
	}
	if sqlast.Print(cmp) != "a = 1" {
		t.Errorf("result = %q, want a = 1", sqlast.Print(cmp))
	}
}

func TestSimplify_NotFoldsIntoNegatedForms(t *testing.T) {
	tests := []struct {
		name string
		in   sqlast.Predicate
		want string
	}{
		{
			"is null",
			&sqlast.Not{Operand: &sqlast.IsNull{Expr: col("a")}},
			"a IS NOT NULL",
		},
		{
			"in list",
			&sqlast.Not{Operand: &sqlast.InList{Expr: col("a"), Values: []sqlast.Node{num("1")}}},
			"a NOT IN (1)",
		},
		{
			"negated exists",
			&sqlast.Not{Operand: &sqlast.Exists{Negated: true, Query: &sqlast.Select{
				Columns: []*sqlast.SelectItem{{Expr: num("1")}},
				From:    []sqlast.Node{&sqlast.Table{Name: "t"}},
			}}},
			"EXISTS (SELECT 1 FROM t)",
		},
	}
	for _, tt := range tests {
		got := sqlast.Print(simplifyPredicate(tt.in))
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSimplify_FlattensNestedConjunctions(t *testing.T) {
	p := &sqlast.And{Operands: []sqlast.Predicate{
		eq("a", "1"),
		&sqlast.And{Operands: []sqlast.Predicate{eq("b", "2"), eq("c", "3")}},
	}}

	got, ok := simplifyPredicate(p).(*sqlast.And)
	if !ok {
		t.Fatalf("simplifyPredicate did not return *And")
	}
	if len(got.Operands) != 3 {
		t.Errorf("flattened operand count = %d, want 3", len(got.Operands))
	}
}

func TestSimplify_FlattensNestedDisjunctions(t *testing.T) {
	p := &sqlast.Or{Operands: []sqlast.Predicate{
		eq("a", "1"),
		&sqlast.Or{Operands: []sqlast.Predicate{
			eq("b", "2"),
			&sqlast.Or{Operands: []sqlast.Predicate{eq("c", "3"), eq("d", "4")}},
		}},
	}}

	got, ok := simplifyPredicate(p).(*sqlast.Or)
	if !ok {
		t.Fatalf("simplifyPredicate did not return *Or")
	}
	if len(got.Operands) != 4 {
		t.Errorf("flattened operand count = %d, want 4", len(got.Operands))
	}
}

func TestSimplify_FalseConjunctDecides(t *testing.T) {
	p := &sqlast.And{Operands: []sqlast.Predicate{eq("a", "1"), constCmp(false)}}

	got := simplifyPredicate(p)

	if val, known := truth(got); !known || val {
		t.Errorf("result truth = (%v, %v), want statically false", val, known)
	}
}

func TestSimplify_TrueDisjunctDecides(t *testing.T) {
	p := &sqlast.Or{Operands: []sqlast.Predicate{eq("a", "1"), constCmp(true)}}

	got := simplifyPredicate(p)

	if val, known := truth(got); !known || !val {
		t.Errorf("result truth = (%v, %v), want statically true", val, known)
	}
}

func TestTruth_NullStaysUnknown(t *testing.T) {
	null := &sqlast.Literal{Class: sqlast.LitNull, Text: "NULL"}
	preds := []sqlast.Predicate{
		&sqlast.Comparison{Left: null, Op: sqlast.OpEq, Right: null},
		&sqlast.Comparison{Left: num("1"), Op: sqlast.OpEq, Right: null},
		&sqlast.Comparison{Left: col("a"), Op: sqlast.OpEq, Right: num("1")},
		&sqlast.Comparison{
			Left:  &sqlast.Literal{Class: sqlast.LitParam, Text: "$1"},
			Op:    sqlast.OpEq,
			Right: num("1"),
		},
	}
	for _, p := range preds {
		if _, known := truth(p); known {
			t.Errorf("truth(%s) reported known, want unknown", sqlast.Print(p))
		}
	}
}

func TestTruth_LiteralComparisons(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"1 = 1", true},
		{"1 = 2", false},
		{"2 > 1", true},
		{"1 >= 2", false},
		{"3.5 < 4", true},
		{"1 <> 1", false},
	}
	for _, tt := range tests {
		res, err := sqlast.Parse("SELECT 1 FROM t WHERE "+tt.sql, "postgres")
		if err != nil {
			t.Fatalf("parse %q: %v", tt.sql, err)
		}
		where := res.Root.(*sqlast.Select).Where
		val, known := truth(where)
		if !known || val != tt.want {
			t.Errorf("truth(%s) = (%v, %v), want (%v, true)", tt.sql, val, known, tt.want)
		}
	}
}

// evalPred evaluates a predicate under a boolean assignment for its column
// leaves. Constant subtrees defer to truth so the oracle agrees with the
// folding rules on what a constant means.
func evalPred(t *testing.T, p sqlast.Predicate, assign map[string]bool) bool {
	t.Helper()
	if val, known := truth(p); known {
		return val
	}
	switch v := p.(type) {
	case *sqlast.Comparison:
		c, ok := v.Left.(*sqlast.ColumnRef)
		if !ok {
			t.Fatalf("non-column leaf %s", sqlast.Print(v))
		}
		return assign[c.Name]
	case *sqlast.Not:
		return !evalPred(t, v.Operand, assign)
	case *sqlast.And:
		for _, op := range v.Operands {
			if !evalPred(t, op, assign) {
				return false
			}
		}
		return true
	case *sqlast.Or:
		for _, op := range v.Operands {
			if evalPred(t, op, assign) {
				return true
			}
		}
		return false
	}
	t.Fatalf("unexpected predicate %T", p)
	return false
}

func randomPredicate(r *rand.Rand, depth int) sqlast.Predicate {
	if depth <= 0 || r.Intn(4) == 0 {
		switch r.Intn(8) {
		case 0:
			return constCmp(true)
		case 1:
			return constCmp(false)
		default:
			return eq(fmt.Sprintf("c%d", r.Intn(8)), "1")
		}
	}
	switch r.Intn(3) {
	case 0:
		return &sqlast.Not{Operand: randomPredicate(r, depth-1)}
	case 1:
		n := 2 + r.Intn(3)
		ops := make([]sqlast.Predicate, n)
		for i := range ops {
			ops[i] = randomPredicate(r, depth-1)
		}
		return &sqlast.And{Operands: ops}
	default:
		n := 2 + r.Intn(3)
		ops := make([]sqlast.Predicate, n)
		for i := range ops {
			ops[i] = randomPredicate(r, depth-1)
		}
		return &sqlast.Or{Operands: ops}
	}
}

// Simplification must preserve truth under every assignment of the
// column leaves. Random trees mix AND/OR/NOT nesting with constant
// subtrees so flattening, folding, and stand-in selection all get hit.
func TestSimplify_PreservesTruthOnRandomTrees(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 300; i++ {
		p := randomPredicate(r, 4)
		simplified := simplifyPredicate(sqlast.ClonePredicate(p))

		for trial := 0; trial < 32; trial++ {
			assign := make(map[string]bool, 8)
			for c := 0; c < 8; c++ {
				assign[fmt.Sprintf("c%d", c)] = r.Intn(2) == 0
			}
			want := evalPred(t, p, assign)
			got := evalPred(t, simplified, assign)
			if got != want {
				t.Fatalf("tree %d: simplification changed truth under %v\noriginal:   %s\nsimplified: %s",
					i, assign, sqlast.Print(p), sqlast.Print(simplified))
			}
		}
	}
}
