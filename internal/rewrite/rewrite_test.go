package rewrite

import (
	"reflect"
	"strings"
	"testing"

	"sqlsage/internal/sqlast"
)

func mustParse(t *testing.T, sql string) sqlast.Node {
	t.Helper()
	res, err := sqlast.Parse(sql, "postgres")
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", sql, err)
	}
	return res.Root
}

func mustRewrite(t *testing.T, sql string) Result {
	t.Helper()
	return Rewrite(mustParse(t, sql))
}

func TestRewrite_CleanQueryUnchanged(t *testing.T) {
	res := mustRewrite(t, "SELECT id, name FROM users WHERE id = 1")

	if res.SQL != "SELECT id, name FROM users WHERE id = 1" {
		t.Errorf("SQL = %q, want original query", res.SQL)
	}
	if res.CostReduction != 0 {
		t.Errorf("CostReduction = %d, want 0", res.CostReduction)
	}
	if len(res.RulesApplied) != 0 {
		t.Errorf("RulesApplied = %v, want none", res.RulesApplied)
	}
}

func TestRewrite_DropsStaticallyTrueWhere(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM t WHERE 1 = 1")

	if res.SQL != "SELECT id FROM t" {
		t.Errorf("SQL = %q, want WHERE removed", res.SQL)
	}
	if res.CostReduction <= 0 {
		t.Errorf("CostReduction = %d, want > 0", res.CostReduction)
	}
	if !reflect.DeepEqual(res.RulesApplied, []string{"prune"}) {
		t.Errorf("RulesApplied = %v, want [prune]", res.RulesApplied)
	}
}

func TestRewrite_FoldsTrueConjunct(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM t WHERE 1 = 1 AND a = 2")

	if res.SQL != "SELECT id FROM t WHERE a = 2" {
		t.Errorf("SQL = %q, want true conjunct folded away", res.SQL)
	}
	if !reflect.DeepEqual(res.RulesApplied, []string{"simplify"}) {
		t.Errorf("RulesApplied = %v, want [simplify]", res.RulesApplied)
	}
}

func TestRewrite_DedupsRepeatedConjunct(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM t WHERE a = 1 AND a = 1")

	if res.SQL != "SELECT id FROM t WHERE a = 1" {
		t.Errorf("SQL = %q, want duplicate conjunct removed", res.SQL)
	}
}

func TestRewrite_CollapsesEmptyUnionAllArm(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM archive WHERE 1 = 0 UNION ALL SELECT id FROM live")

	if res.SQL != "SELECT id FROM live" {
		t.Errorf("SQL = %q, want empty arm collapsed", res.SQL)
	}
	if res.CostReduction <= 0 {
		t.Errorf("CostReduction = %d, want > 0", res.CostReduction)
	}
}

func TestRewrite_KeepsEmptyArmOfPlainUnion(t *testing.T) {
	sql := "SELECT id FROM archive WHERE 1 = 0 UNION SELECT id FROM live"
	res := mustRewrite(t, sql)

	if res.SQL != sql {
		t.Errorf("SQL = %q, want untouched UNION", res.SQL)
	}
	if len(res.RulesApplied) != 0 {
		t.Errorf("RulesApplied = %v, want none", res.RulesApplied)
	}
}

func TestRewrite_TrueJoinConditionBecomesCrossJoin(t *testing.T) {
	res := mustRewrite(t, "SELECT * FROM a JOIN b ON 1 = 1")

	if res.SQL != "SELECT * FROM a CROSS JOIN b" {
		t.Errorf("SQL = %q, want cross join", res.SQL)
	}
}

func TestRewrite_OuterJoinKeepsTrueCondition(t *testing.T) {
	sql := "SELECT * FROM a LEFT JOIN b ON 1 = 1"
	res := mustRewrite(t, sql)

	if res.SQL != sql {
		t.Errorf("SQL = %q, want ON kept on outer join", res.SQL)
	}
}

// Re-running the pipeline on its own output must be a no-op: same SQL,
// zero further reduction, no rules fired.
func TestRewrite_Idempotent(t *testing.T) {
	queries := []string{
		"SELECT id FROM t WHERE 1 = 1 AND a = 2 AND a = 2",
		"SELECT id FROM archive WHERE 1 = 0 UNION ALL SELECT id FROM live",
		"SELECT * FROM (SELECT id, region FROM users) AS u WHERE u.region = 'west'",
		"SELECT id FROM t WHERE NOT (a = 1 AND 1 = 1)",
	}
	for _, sql := range queries {
		first := mustRewrite(t, sql)
		second := Rewrite(first.Optimized)

		if second.SQL != first.SQL {
			t.Errorf("%q: second pass SQL = %q, want %q", sql, second.SQL, first.SQL)
		}
		if second.CostReduction != 0 {
			t.Errorf("%q: second pass CostReduction = %d, want 0", sql, second.CostReduction)
		}
		if len(second.RulesApplied) != 0 {
			t.Errorf("%q: second pass RulesApplied = %v, want none", sql, second.RulesApplied)
		}
	}
}

func TestRewrite_InputTreeUntouched(t *testing.T) {
	root := mustParse(t, "SELECT id FROM t WHERE 1 = 1 AND a = 2")
	before := sqlast.EncodeCanonical(root)

	Rewrite(root)

	if after := sqlast.EncodeCanonical(root); after != before {
		t.Error("Rewrite mutated its input tree")
	}
}

func TestRewrite_NilRoot(t *testing.T) {
	res := Rewrite(nil)
	if res.SQL != "" || res.Optimized != nil || len(res.Alternatives) != 0 {
		t.Errorf("Rewrite(nil) = %+v, want zero result", res)
	}
}

func TestRewrite_AlwaysOffersFormattedAlternative(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM t")

	if len(res.Alternatives) == 0 || res.Alternatives[0].Label != "Formatted Only" {
		t.Fatalf("Alternatives = %+v, want leading Formatted Only entry", res.Alternatives)
	}
	if !strings.Contains(res.Alternatives[0].SQL, "SELECT id") {
		t.Errorf("formatted SQL = %q, want select list present", res.Alternatives[0].SQL)
	}
}

func TestRewrite_PrunesInsideSubqueries(t *testing.T) {
	res := mustRewrite(t, "SELECT id FROM t WHERE id IN (SELECT user_id FROM orders WHERE 1 = 1)")

	if res.SQL != "SELECT id FROM t WHERE id IN (SELECT user_id FROM orders)" {
		t.Errorf("SQL = %q, want subquery WHERE pruned", res.SQL)
	}
}

func TestRewrite_InSubqueryKeptButOfferedAsCTE(t *testing.T) {
	res := mustRewrite(t, "SELECT * FROM users WHERE id IN (SELECT user_id FROM orders)")

	if res.SQL != "SELECT * FROM users WHERE id IN (SELECT user_id FROM orders)" {
		t.Errorf("SQL = %q, want query left structurally unchanged", res.SQL)
	}
	if len(res.RulesApplied) != 0 {
		t.Errorf("RulesApplied = %v, want none", res.RulesApplied)
	}
	if res.CostReduction != 0 {
		t.Errorf("CostReduction = %d, want 0", res.CostReduction)
	}
	cte := findAlternative(t, res.Alternatives, "CTE Refactor")
	if cte == nil {
		t.Fatal("no CTE Refactor alternative offered")
	}
	if !strings.Contains(cte.SQL, "WITH cte_1 AS (SELECT user_id FROM orders)") {
		t.Errorf("CTE SQL = %q, want hoisted subquery", cte.SQL)
	}
}
