package compare

import (
	"testing"

	"sqlsage/internal/analyzer"
	"sqlsage/internal/sqlast"
)

func mustParse(t *testing.T, sql string) sqlast.Node {
	t.Helper()
	res, err := sqlast.Parse(sql, sqlast.DialectPostgres)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sql, err)
	}
	return res.Root
}

func TestCompare_IdenticalTrees(t *testing.T) {
	root := mustParse(t, "SELECT * FROM users WHERE id = 1")

	c := Compare(root, root, nil)

	if c.ScoreDelta != 0 || c.NodesDelta != 0 {
		t.Errorf("deltas = (%d, %d), want 0", c.ScoreDelta, c.NodesDelta)
	}
	if c.ScoreDir != Unchanged {
		t.Errorf("ScoreDir = %v, want Unchanged", c.ScoreDir)
	}
	if len(c.Resolved) != 0 || len(c.Introduced) != 0 {
		t.Errorf("resolved/introduced = %d/%d, want 0/0", len(c.Resolved), len(c.Introduced))
	}
	if len(c.Persisting) != 1 || c.Persisting[0].Kind != analyzer.KindSelectStar {
		t.Errorf("Persisting = %+v, want the select_star finding", c.Persisting)
	}
	if c.Verdict != "unchanged" {
		t.Errorf("Verdict = %q, want unchanged", c.Verdict)
	}
}

func TestCompare_ScoreImprovement(t *testing.T) {
	before := mustParse(t, `SELECT u.id FROM users u
		JOIN orders o ON u.id = o.user_id
		JOIN items i ON o.id = i.order_id
		WHERE u.id = 1 ORDER BY u.id`)
	after := mustParse(t, "SELECT id FROM users WHERE id = 1")

	c := Compare(before, after, nil)

	if c.ScoreBefore != 4 || c.ScoreAfter != 1 {
		t.Errorf("scores = %d before, %d after, want 4 and 1", c.ScoreBefore, c.ScoreAfter)
	}
	if c.ScoreDelta != -3 {
		t.Errorf("ScoreDelta = %d, want -3", c.ScoreDelta)
	}
	if c.ScorePct != -75.0 {
		t.Errorf("ScorePct = %f, want -75.0", c.ScorePct)
	}
	if c.ScoreDir != Improved {
		t.Errorf("ScoreDir = %v, want Improved", c.ScoreDir)
	}
	if c.NodesDelta >= 0 {
		t.Errorf("NodesDelta = %d, want negative for the smaller tree", c.NodesDelta)
	}
	if c.Verdict != "improved: complexity 4 to 1, findings 0 to 0" {
		t.Errorf("Verdict = %q", c.Verdict)
	}
}

func TestCompare_ResolvedFinding(t *testing.T) {
	before := mustParse(t, "SELECT * FROM users")
	after := mustParse(t, "SELECT * FROM users WHERE id = 1")

	c := Compare(before, after, nil)

	if len(c.Resolved) != 1 || c.Resolved[0].Kind != analyzer.KindMissingWhere {
		t.Fatalf("Resolved = %+v, want the missing_where finding", c.Resolved)
	}
	if len(c.Persisting) != 1 || c.Persisting[0].Kind != analyzer.KindSelectStar {
		t.Errorf("Persisting = %+v, want the select_star finding", c.Persisting)
	}
	if len(c.Introduced) != 0 {
		t.Errorf("Introduced = %+v, want none", c.Introduced)
	}
	if c.Verdict != "improved: complexity 1 to 1, findings 2 to 1" {
		t.Errorf("Verdict = %q", c.Verdict)
	}
}

func TestCompare_IntroducedFinding(t *testing.T) {
	before := mustParse(t, "SELECT id FROM users WHERE id = 1")
	after := mustParse(t, "SELECT * FROM users WHERE id = 1")

	c := Compare(before, after, nil)

	if len(c.Introduced) != 1 || c.Introduced[0].Kind != analyzer.KindSelectStar {
		t.Fatalf("Introduced = %+v, want the select_star finding", c.Introduced)
	}
	if len(c.Resolved) != 0 {
		t.Errorf("Resolved = %+v, want none", c.Resolved)
	}
	if c.Verdict != "regressed: complexity 1 to 1, findings 0 to 1" {
		t.Errorf("Verdict = %q", c.Verdict)
	}
}

func TestCompare_RepeatedKindMatchedByCount(t *testing.T) {
	before := mustParse(t, "SELECT * FROM users WHERE id IN (SELECT * FROM users)")
	after := mustParse(t, "SELECT * FROM users WHERE id = 1")

	c := Compare(before, after, nil)

	resolved, persisting := 0, 0
	for _, f := range c.Resolved {
		if f.Kind == analyzer.KindSelectStar {
			resolved++
		}
	}
	for _, f := range c.Persisting {
		if f.Kind == analyzer.KindSelectStar {
			persisting++
		}
	}
	if resolved != 1 || persisting != 1 {
		t.Errorf("select_star resolved/persisting = %d/%d, want 1/1", resolved, persisting)
	}
	if len(c.Introduced) != 0 {
		t.Errorf("Introduced = %+v, want none", c.Introduced)
	}
}

func TestCompare_SchemaHintsReachDetection(t *testing.T) {
	opts := &analyzer.Options{Schema: map[string]string{"users.flags": "integer"}}
	before := mustParse(t, "SELECT id FROM users WHERE flags = 'active'")
	after := mustParse(t, "SELECT id FROM users WHERE id = 1")

	c := Compare(before, after, opts)

	found := false
	for _, f := range c.Resolved {
		if f.Kind == analyzer.KindImplicitCast {
			found = true
		}
	}
	if !found {
		t.Errorf("Resolved = %+v, want an implicit_cast finding driven by the schema hint", c.Resolved)
	}
}

func TestCompare_NilTrees(t *testing.T) {
	c := Compare(nil, nil, nil)

	if c.ScoreDelta != 0 || c.NodesDelta != 0 || c.Verdict != "unchanged" {
		t.Errorf("nil comparison = %+v, want all-zero unchanged", c)
	}
}
