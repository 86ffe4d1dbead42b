package sqlast

import "testing"

func requirePrint(t *testing.T, sql, want string) {
	t.Helper()
	got := Print(mustParse(t, sql).Root)
	if got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestPrint_SimpleSelect(t *testing.T) {
	requirePrint(t,
		"select id,   name from users where age>=21",
		"SELECT id, name FROM users WHERE age >= 21")
}

func TestPrint_JoinWithAliases(t *testing.T) {
	requirePrint(t,
		"SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id",
		"SELECT o.id FROM orders AS o JOIN customers AS c ON o.customer_id = c.id")
}

func TestPrint_BetweenLowered(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM t WHERE age BETWEEN 18 AND 65",
		"SELECT id FROM t WHERE age >= 18 AND age <= 65")
}

func TestPrint_NotBetweenParenthesized(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM t WHERE age NOT BETWEEN 18 AND 65",
		"SELECT id FROM t WHERE NOT (age >= 18 AND age <= 65)")
}

func TestPrint_OrUnderAndParenthesized(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM t WHERE a = 1 AND (b = 2 OR c = 3)",
		"SELECT id FROM t WHERE a = 1 AND (b = 2 OR c = 3)")
}

func TestPrint_InPredicates(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM t WHERE status NOT IN ('void', 'draft')",
		"SELECT id FROM t WHERE status NOT IN ('void', 'draft')")
	requirePrint(t,
		"SELECT id FROM u WHERE id NOT IN (SELECT uid FROM banned)",
		"SELECT id FROM u WHERE id NOT IN (SELECT uid FROM banned)")
}

func TestPrint_Exists(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM u WHERE NOT EXISTS (SELECT 1 FROM b WHERE b.uid = u.id)",
		"SELECT id FROM u WHERE NOT EXISTS (SELECT 1 FROM b WHERE b.uid = u.id)")
}

func TestPrint_WindowClause(t *testing.T) {
	requirePrint(t,
		"SELECT rank() OVER (PARTITION BY region ORDER BY total DESC) FROM sales",
		"SELECT RANK() OVER (PARTITION BY region ORDER BY total DESC) FROM sales")
}

func TestPrint_SetOperation(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM a UNION ALL SELECT id FROM b",
		"SELECT id FROM a UNION ALL SELECT id FROM b")
}

func TestPrint_CTE(t *testing.T) {
	requirePrint(t,
		"WITH recent AS (SELECT id FROM orders) SELECT * FROM recent",
		"WITH recent AS (SELECT id FROM orders) SELECT * FROM recent")
}

func TestPrint_LimitOffset(t *testing.T) {
	requirePrint(t,
		"SELECT id FROM t LIMIT 10 OFFSET 5",
		"SELECT id FROM t LIMIT 10 OFFSET 5")
}

func TestPrint_OperatorParenthesized(t *testing.T) {
	requirePrint(t,
		"SELECT price * quantity FROM items",
		"SELECT (price * quantity) FROM items")
}

func TestPrint_StringEscaping(t *testing.T) {
	pred := &Comparison{
		Op:    OpEq,
		Left:  &ColumnRef{Name: "name"},
		Right: &Literal{Class: LitString, Text: "O'Brien"},
	}
	if got := Print(pred); got != "name = 'O''Brien'" {
		t.Errorf("Print = %q, want doubled quote", got)
	}
}

func TestPrintPretty_ClausePerLine(t *testing.T) {
	got := PrintPretty(mustParse(t,
		"SELECT id, name FROM users WHERE age >= 21 ORDER BY name LIMIT 10").Root)
	want := "SELECT id, name\nFROM users\nWHERE age >= 21\nORDER BY name\nLIMIT 10"
	if got != want {
		t.Errorf("PrintPretty = %q, want %q", got, want)
	}
}

func TestPrintPretty_DerivedTableIndented(t *testing.T) {
	got := PrintPretty(mustParse(t,
		"SELECT t.n FROM (SELECT id AS n FROM users) t").Root)
	want := "SELECT t.n\nFROM (\n  SELECT id AS n\n  FROM users\n) AS t"
	if got != want {
		t.Errorf("PrintPretty = %q, want %q", got, want)
	}
}

// Printed SQL must parse back to the identical tree; rewritten queries
// are emitted through this printer.
func TestPrint_RoundTrips(t *testing.T) {
	queries := []string{
		"SELECT * FROM users",
		"SELECT DISTINCT region FROM orders",
		"SELECT u.id, u.name FROM users u LEFT JOIN orders o ON o.user_id = u.id",
		"SELECT * FROM a CROSS JOIN b",
		"SELECT * FROM a, b WHERE a.id = b.a_id",
		"SELECT count(*), sum(total) FROM orders GROUP BY region HAVING count(*) > 5",
		"SELECT id FROM t WHERE name LIKE 'a%' OR name ILIKE 'b%'",
		"SELECT id FROM t WHERE age BETWEEN 18 AND 65 AND status IN ('a', 'b')",
		"SELECT id FROM u WHERE EXISTS (SELECT 1 FROM o WHERE o.uid = u.id)",
		"SELECT id FROM u WHERE id NOT IN (SELECT uid FROM banned)",
		"SELECT id FROM t WHERE deleted_at IS NOT NULL ORDER BY id DESC LIMIT 100",
		"SELECT (price * quantity) FROM items WHERE qty > 0",
		"SELECT CAST(total AS integer) FROM orders",
		"SELECT sum(total) OVER (PARTITION BY region) FROM sales",
		"WITH x AS (SELECT id FROM a) SELECT * FROM x UNION ALL SELECT id FROM b",
		"SELECT lower(email) FROM users WHERE upper(name) = 'X'",
	}

	for _, sql := range queries {
		first := mustParse(t, sql).Root
		printed := Print(first)
		second, err := Parse(printed, DialectPostgres)
		if err != nil {
			t.Errorf("reparse of %q failed: %v", printed, err)
			continue
		}
		if !Equal(first, second.Root) {
			t.Errorf("round trip changed tree:\n  input:   %s\n  printed: %s", sql, printed)
		}
	}
}
