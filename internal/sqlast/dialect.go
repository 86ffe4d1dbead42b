package sqlast

import (
	"fmt"
	"regexp"
	"strings"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectOracle   Dialect = "oracle"
	DialectTSQL     Dialect = "tsql"
	DialectGeneric  Dialect = "generic"
)

// ParseDialect maps user-facing dialect names and common aliases onto the
// supported set. The empty string and "auto" request detection.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "oracle":
		return DialectOracle, nil
	case "tsql", "mssql", "sqlserver":
		return DialectTSQL, nil
	case "generic", "ansi":
		return DialectGeneric, nil
	}
	return "", fmt.Errorf("unknown dialect %q: expected postgres, mysql, oracle, tsql or generic", s)
}

var (
	oracleMarkerRe = regexp.MustCompile(`(?i)\b(NVL\s*\(|SYSDATE\b|ROWNUM\b|CONNECT\s+BY\b)`)
	tsqlMarkerRe   = regexp.MustCompile(`(?i)(\bTOP\s+\(?\d+\)?[\s,]|\bGETDATE\s*\(|\bNOLOCK\b|\bCROSS\s+APPLY\b)`)
)

// DetectDialect guesses the dialect from surface syntax. Backticks are the
// strongest signal and win over keyword markers; postgres is the default
// when nothing distinctive appears.
func DetectDialect(sql string) Dialect {
	if strings.Contains(sql, "`") {
		return DialectMySQL
	}
	if oracleMarkerRe.MatchString(sql) {
		return DialectOracle
	}
	if tsqlMarkerRe.MatchString(sql) {
		return DialectTSQL
	}
	return DialectPostgres
}

var (
	nvlCallRe     = regexp.MustCompile(`(?i)\bNVL\s*\(`)
	isnullCallRe  = regexp.MustCompile(`(?i)\bISNULL\s*\(`)
	sysdateRe     = regexp.MustCompile(`(?i)\bSYSDATE\b`)
	getdateRe     = regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`)
	nolockRe      = regexp.MustCompile(`(?i)\bWITH\s*\(\s*NOLOCK\s*\)`)
	bracketRe     = regexp.MustCompile(`\[([^\]\[]+)\]`)
	topRe         = regexp.MustCompile(`(?i)\bSELECT\s+TOP\s+\(?(\d+)\)?\s+`)
	mysqlLimitRe  = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\s*,\s*(\d+)`)
	limitPresence = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// normalizeDialect rewrites dialect surface syntax into the form the
// grammar engine accepts. All dialect quirks are handled here and nowhere
// else; downstream code sees one uniform tree. Returned warnings describe
// constructs that were approximated rather than translated exactly.
func normalizeDialect(sql string, d Dialect) (string, []string) {
	var warnings []string
	switch d {
	case DialectMySQL:
		sql = backticksToDoubleQuotes(sql)
		sql = rewriteCode(sql, func(code string) string {
			return mysqlLimitRe.ReplaceAllString(code, "LIMIT $2 OFFSET $1")
		})
	case DialectOracle:
		sql = rewriteCode(sql, func(code string) string {
			code = nvlCallRe.ReplaceAllString(code, "COALESCE(")
			return sysdateRe.ReplaceAllString(code, "now()")
		})
	case DialectTSQL:
		sql = rewriteCode(sql, func(code string) string {
			code = bracketRe.ReplaceAllString(code, `"$1"`)
			code = getdateRe.ReplaceAllString(code, "now()")
			code = isnullCallRe.ReplaceAllString(code, "COALESCE(")
			return nolockRe.ReplaceAllString(code, "")
		})
		sql, warnings = rewriteTop(sql, warnings)
	}
	return sql, warnings
}

// rewriteTop converts a single leading SELECT TOP n into a trailing LIMIT.
// TOP in nested queries cannot be placed correctly by lexical rewriting,
// so those are stripped with a warning.
func rewriteTop(sql string, warnings []string) (string, []string) {
	matches := topRe.FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return sql, warnings
	}

	if len(matches) == 1 && !limitPresence.MatchString(sql) {
		m := matches[0]
		count := sql[m[2]:m[3]]
		rewritten := sql[:m[0]] + "SELECT " + sql[m[1]:]
		rewritten = strings.TrimRight(rewritten, " \t\n\r;")
		return rewritten + " LIMIT " + count, warnings
	}

	warnings = append(warnings,
		"TOP in a nested query has no lexical LIMIT equivalent; row limits were dropped from the analysis")
	return topRe.ReplaceAllString(sql, "SELECT "), warnings
}

// rewriteCode applies f to the non-quoted, non-comment runs of sql,
// leaving string literals, quoted identifiers and comments untouched.
func rewriteCode(sql string, f func(string) string) string {
	var out, code strings.Builder
	flush := func() {
		if code.Len() > 0 {
			out.WriteString(f(code.String()))
			code.Reset()
		}
	}

	i := 0
	for i < len(sql) {
		c := sql[i]
		switch {
		case c == '\'':
			flush()
			j := scanQuoted(sql, i, '\'')
			out.WriteString(sql[i:j])
			i = j
		case c == '"':
			flush()
			j := scanQuoted(sql, i, '"')
			out.WriteString(sql[i:j])
			i = j
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			flush()
			j := strings.IndexByte(sql[i:], '\n')
			if j < 0 {
				j = len(sql) - i
			}
			out.WriteString(sql[i : i+j])
			i += j
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			flush()
			j := strings.Index(sql[i+2:], "*/")
			if j < 0 {
				j = len(sql) - i - 2
			}
			out.WriteString(sql[i : i+j+4])
			i += j + 4
			if i > len(sql) {
				i = len(sql)
			}
		default:
			code.WriteByte(c)
			i++
		}
	}
	flush()
	return out.String()
}

// scanQuoted returns the index just past a quoted region starting at i,
// honoring doubled-quote escapes.
func scanQuoted(sql string, i int, quote byte) int {
	j := i + 1
	for j < len(sql) {
		if sql[j] == quote {
			if j+1 < len(sql) && sql[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(sql)
}

// backticksToDoubleQuotes turns MySQL identifier quoting into standard
// double quotes, leaving single-quoted strings alone.
func backticksToDoubleQuotes(sql string) string {
	var out strings.Builder
	i := 0
	for i < len(sql) {
		c := sql[i]
		switch c {
		case '\'':
			j := scanQuoted(sql, i, '\'')
			out.WriteString(sql[i:j])
			i = j
		case '`':
			j := i + 1
			for j < len(sql) && sql[j] != '`' {
				j++
			}
			out.WriteByte('"')
			out.WriteString(sql[i+1 : j])
			out.WriteByte('"')
			if j < len(sql) {
				j++
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}
