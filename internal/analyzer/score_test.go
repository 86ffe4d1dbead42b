package analyzer

import (
	"reflect"
	"testing"

	"sqlsage/internal/sqlast"
)

// --- Helpers ---

func mustScore(t *testing.T, sql string) Complexity {
	t.Helper()
	res, err := sqlast.Parse(sql, "postgres")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Score(res.Root)
}

func TestScore_TrivialQuery(t *testing.T) {
	c := mustScore(t, "SELECT id FROM users")

	if c.Score != 1 {
		t.Errorf("score = %d, want 1", c.Score)
	}
	if c.Raw != 0 {
		t.Errorf("raw = %d, want 0", c.Raw)
	}
	if len(c.Breakdown) != 0 {
		t.Errorf("breakdown should be empty, got %v", c.Breakdown)
	}
}

func TestScore_SingleJoin(t *testing.T) {
	c := mustScore(t, "SELECT u.id FROM users u JOIN orders o ON u.id = o.user_id")

	if c.Score != 2 {
		t.Errorf("score = %d, want 2", c.Score)
	}
	if len(c.Breakdown) != 1 || c.Breakdown[0].Name != "joins" || c.Breakdown[0].Contribution != 1 {
		t.Errorf("breakdown = %v, want single joins factor of 1", c.Breakdown)
	}
}

func TestScore_FiveJoinsCarryExtraWeight(t *testing.T) {
	c := mustScore(t, `SELECT a.id FROM a
		JOIN b ON a.id = b.a_id
		JOIN c ON b.id = c.b_id
		JOIN d ON c.id = d.c_id
		JOIN e ON d.id = e.d_id
		JOIN f ON e.id = f.e_id`)

	if c.Raw != 9 {
		t.Errorf("raw = %d, want 9 (5 joins + 2 beyond threshold at double weight)", c.Raw)
	}
	if c.Score != 8 {
		t.Errorf("score = %d, want 8", c.Score)
	}
}

func TestScore_ImplicitCrossJoin(t *testing.T) {
	c := mustScore(t, "SELECT * FROM a, b")

	if c.Raw != 1 {
		t.Errorf("raw = %d, want 1", c.Raw)
	}
}

func TestScore_SubqueryDepthWeighting(t *testing.T) {
	c := mustScore(t, `SELECT id FROM users
		WHERE id IN (SELECT user_id FROM orders
			WHERE product_id IN (SELECT id FROM products))`)

	// depth 1 subquery contributes 1, the one nested inside it contributes 2
	if c.Raw != 3 {
		t.Errorf("raw = %d, want 3", c.Raw)
	}
	if c.Score != 4 {
		t.Errorf("score = %d, want 4", c.Score)
	}
}

func TestScore_DerivedTable(t *testing.T) {
	c := mustScore(t, "SELECT t.id FROM (SELECT id FROM orders) t")

	if c.Raw != 1 {
		t.Errorf("raw = %d, want 1", c.Raw)
	}
	if len(c.Breakdown) != 1 || c.Breakdown[0].Name != "subqueries" {
		t.Errorf("breakdown = %v, want single subqueries factor", c.Breakdown)
	}
}

func TestScore_CTEIsNotASubquery(t *testing.T) {
	c := mustScore(t, "WITH recent AS (SELECT id FROM orders) SELECT id FROM recent")

	if c.Raw != 0 {
		t.Errorf("raw = %d, want 0", c.Raw)
	}
	if c.Score != 1 {
		t.Errorf("score = %d, want 1", c.Score)
	}
}

func TestScore_SetOperation(t *testing.T) {
	c := mustScore(t, "SELECT id FROM a UNION SELECT id FROM b")

	if c.Raw != 2 {
		t.Errorf("raw = %d, want 2", c.Raw)
	}
	if len(c.Breakdown) != 1 || c.Breakdown[0].Name != "set_ops" {
		t.Errorf("breakdown = %v, want single set_ops factor", c.Breakdown)
	}
}

func TestScore_AggregationClauses(t *testing.T) {
	c := mustScore(t, `SELECT region, count(*) FROM orders
		GROUP BY region HAVING count(*) > 10 ORDER BY region`)

	// aggregates, group_by, having and order_by each contribute 1
	if c.Raw != 4 {
		t.Errorf("raw = %d, want 4", c.Raw)
	}
	if c.Score != 5 {
		t.Errorf("score = %d, want 5", c.Score)
	}
}

func TestScore_WindowFunction(t *testing.T) {
	c := mustScore(t, "SELECT rank() OVER (PARTITION BY region ORDER BY total DESC) FROM sales")

	if c.Raw != 1 {
		t.Errorf("raw = %d, want 1", c.Raw)
	}
	if len(c.Breakdown) != 1 || c.Breakdown[0].Name != "window_functions" {
		t.Errorf("breakdown = %v, want single window_functions factor", c.Breakdown)
	}
}

func TestScore_Saturation(t *testing.T) {
	c := mustScore(t, `SELECT a.id FROM a
		JOIN b ON a.id = b.a_id
		JOIN c ON b.id = c.b_id
		JOIN d ON c.id = d.c_id
		JOIN e ON d.id = e.d_id
		JOIN f ON e.id = f.e_id
		JOIN g ON f.id = g.f_id
		JOIN h ON g.id = h.g_id
		JOIN i ON h.id = i.h_id`)

	if c.Score != 10 {
		t.Errorf("score = %d, want 10", c.Score)
	}
}

func TestScore_BandEdges(t *testing.T) {
	for raw, want := range map[int]int{0: 1, 1: 2, 2: 3, 3: 4, 4: 5, 5: 6, 6: 6, 7: 7, 8: 7, 9: 8, 11: 8, 12: 9, 14: 9, 15: 10, 40: 10} {
		if got := band(raw); got != want {
			t.Errorf("band(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestScore_BreakdownOrderIsFixed(t *testing.T) {
	c := mustScore(t, `SELECT region, count(*) FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.id IN (SELECT order_id FROM refunds)
		GROUP BY region ORDER BY region`)

	var names []string
	for _, f := range c.Breakdown {
		names = append(names, f.Name)
	}
	want := []string{"joins", "subqueries", "aggregates", "group_by", "order_by"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("breakdown order = %v, want %v", names, want)
	}
}

func TestScore_Deterministic(t *testing.T) {
	res, err := sqlast.Parse("SELECT a.id FROM a JOIN b ON a.id = b.a_id WHERE a.id IN (SELECT x FROM c) GROUP BY a.id", "postgres")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	first := Score(res.Root)
	second := Score(res.Root)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scoring diverged: %v vs %v", first, second)
	}
}
