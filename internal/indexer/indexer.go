// Package indexer derives index suggestions from the predicates a query
// actually evaluates. Equality filters combined by AND become composite
// candidates with equality columns leading, range filters trail, and join
// keys, grouping, and ordering columns get single-column candidates of
// their own. Suggestions carry ready-to-review CREATE INDEX statements.
package indexer

import (
	"fmt"
	"sort"
	"strings"

	"sqlsage/internal/analyzer"
	"sqlsage/internal/sqlast"
)

// Priority ranks how urgently a suggestion should be acted on.
type Priority int

const (
	Low Priority = iota
	Medium
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"low"`:
		*p = Low
	case `"medium"`:
		*p = Medium
	case `"high"`:
		*p = High
	case `"critical"`:
		*p = Critical
	default:
		return fmt.Errorf("unknown priority %s", data)
	}
	return nil
}

// Suggestion is one proposed index. Columns hold the key columns in
// suggested order; Covering lists extra columns carried only to make the
// index satisfy the select list without a heap visit.
type Suggestion struct {
	Table     string   `json:"table"`
	Columns   []string `json:"columns"`
	Covering  []string `json:"covering_columns,omitempty"`
	IndexOnly bool     `json:"index_only,omitempty"`
	Priority  Priority `json:"priority"`
	Reason    string   `json:"reason"`
	DDL       string   `json:"ddl"`
}

// Suggest walks every scope of the query and returns deduplicated
// suggestions ranked by priority, then by equality-column count as a
// selectivity proxy, then by name for a stable order.
func Suggest(root sqlast.Node, dialect sqlast.Dialect) []Suggestion {
	if root == nil {
		return nil
	}
	c := &collector{seen: make(map[string]int)}
	for _, sc := range analyzer.CollectScopes(root) {
		c.scope(sc)
	}

	sort.SliceStable(c.out, func(i, j int) bool {
		a, b := c.out[i], c.out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.eqCols != b.eqCols {
			return a.eqCols > b.eqCols
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return strings.Join(a.Columns, ",") < strings.Join(b.Columns, ",")
	})

	suggestions := make([]Suggestion, 0, len(c.out))
	for i := range c.out {
		c.out[i].DDL = buildDDL(&c.out[i].Suggestion, dialect)
		suggestions = append(suggestions, c.out[i].Suggestion)
	}
	return suggestions
}

// candidate pairs a suggestion with its ranking inputs.
type candidate struct {
	Suggestion
	eqCols int
}

type collector struct {
	out  []candidate
	seen map[string]int // dedup key -> index into out
}

// add merges a candidate with any previous one proposing the same index,
// keeping the higher priority.
func (c *collector) add(cand candidate) {
	key := cand.Table + "|" + joinedKey(cand.Columns) + "|" + joinedKey(cand.Covering)
	if i, ok := c.seen[key]; ok {
		if cand.Priority > c.out[i].Priority {
			c.out[i].Priority = cand.Priority
			c.out[i].Reason = cand.Reason
		}
		if cand.eqCols > c.out[i].eqCols {
			c.out[i].eqCols = cand.eqCols
		}
		if cand.IndexOnly {
			c.out[i].IndexOnly = true
		}
		return
	}
	c.seen[key] = len(c.out)
	c.out = append(c.out, cand)
}

// joinedKey canonicalizes a column list for deduplication only; suggested
// column order is preserved elsewhere.
func joinedKey(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func buildDDL(s *Suggestion, dialect sqlast.Dialect) string {
	keys := strings.Join(s.Columns, ", ")
	if len(s.Covering) == 0 {
		return fmt.Sprintf("CREATE INDEX %s ON %s (%s);", indexName(s.Table, s.Columns), s.Table, keys)
	}
	if dialect == sqlast.DialectPostgres {
		return fmt.Sprintf("CREATE INDEX %s ON %s (%s) INCLUDE (%s);",
			indexName(s.Table, s.Columns), s.Table, keys, strings.Join(s.Covering, ", "))
	}
	// no INCLUDE clause elsewhere; carry covering columns as trailing keys
	all := append(append([]string(nil), s.Columns...), s.Covering...)
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s);", indexName(s.Table, all), s.Table, strings.Join(all, ", "))
}

// indexName derives a deterministic name from the table and key columns,
// clamping the column part so generated names stay within common
// identifier limits.
func indexName(table string, cols []string) string {
	part := strings.Join(cols, "_")
	if len(part) > 40 {
		part = part[:40]
	}
	return "idx_" + strings.ReplaceAll(table, ".", "_") + "_" + part
}
