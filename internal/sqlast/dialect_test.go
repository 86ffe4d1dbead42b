package sqlast

import (
	"strings"
	"testing"
)

func TestParseDialect_Aliases(t *testing.T) {
	cases := map[string]Dialect{
		"postgres":   DialectPostgres,
		"PostgreSQL": DialectPostgres,
		"pg":         DialectPostgres,
		"mysql":      DialectMySQL,
		"mariadb":    DialectMySQL,
		"oracle":     DialectOracle,
		"tsql":       DialectTSQL,
		"MSSQL":      DialectTSQL,
		"sqlserver":  DialectTSQL,
		"generic":    DialectGeneric,
		"ansi":       DialectGeneric,
		"":           "",
		"auto":       "",
	}
	for input, want := range cases {
		got, err := ParseDialect(input)
		if err != nil {
			t.Errorf("ParseDialect(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDialect(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseDialect_Unknown(t *testing.T) {
	_, err := ParseDialect("sqlite")
	if err == nil || !strings.Contains(err.Error(), "unknown dialect") {
		t.Errorf("err = %v, want unknown dialect error", err)
	}
}

func TestDetectDialect(t *testing.T) {
	cases := []struct {
		sql  string
		want Dialect
	}{
		{"SELECT `id` FROM `users`", DialectMySQL},
		{"SELECT NVL(a, b) FROM t", DialectOracle},
		{"SELECT * FROM t WHERE ROWNUM <= 10", DialectOracle},
		{"SELECT SYSDATE FROM dual", DialectOracle},
		{"SELECT TOP 5 * FROM t", DialectTSQL},
		{"SELECT GETDATE()", DialectTSQL},
		{"SELECT * FROM t WITH (NOLOCK)", DialectTSQL},
		{"SELECT id FROM users WHERE age > 21", DialectPostgres},
	}
	for _, tc := range cases {
		if got := DetectDialect(tc.sql); got != tc.want {
			t.Errorf("DetectDialect(%q) = %v, want %v", tc.sql, got, tc.want)
		}
	}
}

func TestNormalize_PostgresPassthrough(t *testing.T) {
	sql := "SELECT id FROM users WHERE age > 21"
	got, warnings := normalizeDialect(sql, DialectPostgres)
	if got != sql {
		t.Errorf("normalized = %q, want unchanged", got)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestNormalize_MySQLBackticks(t *testing.T) {
	got, _ := normalizeDialect("SELECT `a` FROM `t`", DialectMySQL)
	if got != `SELECT "a" FROM "t"` {
		t.Errorf("normalized = %q", got)
	}
}

func TestNormalize_MySQLLimitPair(t *testing.T) {
	got, _ := normalizeDialect("SELECT a FROM t LIMIT 20, 10", DialectMySQL)
	if got != "SELECT a FROM t LIMIT 10 OFFSET 20" {
		t.Errorf("normalized = %q", got)
	}
}

func TestNormalize_LeavesStringsAlone(t *testing.T) {
	sql := "SELECT 'LIMIT 1, 2' FROM t"
	got, _ := normalizeDialect(sql, DialectMySQL)
	if got != sql {
		t.Errorf("normalized = %q, want string literal untouched", got)
	}
}

func TestNormalize_OracleFunctions(t *testing.T) {
	got, _ := normalizeDialect(
		"SELECT NVL(a, 'x') FROM t WHERE d < SYSDATE", DialectOracle)
	if got != "SELECT COALESCE(a, 'x') FROM t WHERE d < now()" {
		t.Errorf("normalized = %q", got)
	}
}

func TestNormalize_TSQLSurface(t *testing.T) {
	got, _ := normalizeDialect(
		"SELECT name FROM [dbo].[users] WITH (NOLOCK) WHERE d > GETDATE()", DialectTSQL)

	if !strings.Contains(got, `"dbo"."users"`) {
		t.Errorf("brackets not converted: %q", got)
	}
	if strings.Contains(got, "NOLOCK") {
		t.Errorf("NOLOCK hint not stripped: %q", got)
	}
	if !strings.Contains(got, "now()") {
		t.Errorf("GETDATE not rewritten: %q", got)
	}
}

func TestNormalize_TopBecomesTrailingLimit(t *testing.T) {
	got, warnings := normalizeDialect("SELECT TOP 10 a FROM t ORDER BY a", DialectTSQL)
	if got != "SELECT a FROM t ORDER BY a LIMIT 10" {
		t.Errorf("normalized = %q", got)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestNormalize_NestedTopDropped(t *testing.T) {
	got, warnings := normalizeDialect(
		"SELECT * FROM (SELECT TOP 5 a FROM t) x LIMIT 3", DialectTSQL)
	if strings.Contains(got, "TOP") {
		t.Errorf("TOP not stripped: %q", got)
	}
	if len(warnings) == 0 || !strings.Contains(warnings[0], "TOP") {
		t.Errorf("expected drop warning, got %v", warnings)
	}
}

func TestNormalize_CommentsUntouched(t *testing.T) {
	sql := "-- LIMIT 1, 2\nSELECT a FROM t /* LIMIT 3, 4 */"
	got, _ := normalizeDialect(sql, DialectMySQL)
	if got != sql {
		t.Errorf("normalized = %q, want comments untouched", got)
	}
}

func TestBackticks_InsideStrings(t *testing.T) {
	got := backticksToDoubleQuotes("SELECT 'a`b', `c` FROM t")
	if got != `SELECT 'a`+"`"+`b', "c" FROM t` {
		t.Errorf("converted = %q", got)
	}
}
