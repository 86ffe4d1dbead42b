package plan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	costRe   = regexp.MustCompile(`\(cost=(\d+\.\d+)\.\.(\d+\.\d+) rows=(\d+)`)
	actualRe = regexp.MustCompile(`\(actual time=[\d.]+\.\.[\d.]+ rows=(\d+)`)
	usingRe  = regexp.MustCompile(` using (\S+)`)
	onRe     = regexp.MustCompile(` on (\S+)`)
)

// Parse turns raw EXPLAIN output into a plan tree. JSON payloads are
// recognized by their leading byte; for text the grammar comes from the
// format argument, or from line markers when the format is FormatAuto.
func Parse(text string, format Format) (*Node, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &MalformedPlanError{Reason: "empty input"}
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return parseJSON([]byte(trimmed))
	}
	switch format {
	case FormatPostgres:
		return parsePostgresText(trimmed)
	case FormatMySQL:
		return parseMySQLText(trimmed)
	}
	if strings.Contains(trimmed, "select_type") {
		return parseMySQLText(trimmed)
	}
	return parsePostgresText(trimmed)
}

// parsePostgresText reads the arrow/indent grammar of EXPLAIN text
// output. The first plan line opens the root; every further node carries
// a "->" marker whose column position encodes nesting depth. Detail
// lines (Filter:, Index Cond:, timing footers) are skipped.
func parsePostgresText(text string) (*Node, error) {
	type frame struct {
		indent int
		node   *Node
	}
	var root *Node
	var stack []frame

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		arrow := strings.Index(line, "->")
		if arrow < 0 {
			if root == nil && rootCandidate(line) {
				root = parsePostgresNode(line)
				stack = []frame{{indent: -1, node: root}}
			}
			continue
		}
		node := parsePostgresNode(line[arrow+2:])
		if node == nil {
			continue
		}
		if root == nil {
			// a plan pasted without its first line still forms a tree
			root = node
			stack = []frame{{indent: arrow, node: node}}
			continue
		}
		for len(stack) > 1 && stack[len(stack)-1].indent >= arrow {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{indent: arrow, node: node})
	}
	if root == nil {
		return nil, &MalformedPlanError{Reason: "no plan nodes found"}
	}
	return root, nil
}

// rootCandidate filters the first line: without an arrow marker a line
// only counts as the root when it carries a cost group, an actuals
// group, or a scan target, which keeps prose and psql headers out.
func rootCandidate(line string) bool {
	return strings.Contains(line, "(cost=") ||
		strings.Contains(line, "(actual") ||
		strings.Contains(line, " on ")
}

// parsePostgresNode reads one node line, arrow and indent already
// stripped. Returns nil for detail lines that slipped through.
func parsePostgresNode(text string) *Node {
	head := text
	if i := strings.IndexByte(head, '('); i >= 0 {
		head = head[:i]
	}
	head = strings.TrimSpace(head)
	if head == "" || head == "QUERY PLAN" || strings.Contains(head, ":") {
		return nil
	}
	if strings.Trim(head, "-+| ") == "" {
		return nil
	}

	node := &Node{}
	if m := onRe.FindStringSubmatch(head); m != nil {
		node.Table = m[1]
	}
	if m := usingRe.FindStringSubmatch(head); m != nil {
		node.Index = m[1]
	}
	op := head
	if i := strings.Index(op, " using "); i >= 0 {
		op = op[:i]
	} else if i := strings.Index(op, " on "); i >= 0 {
		op = op[:i]
	}
	node.Operation = op

	if m := costRe.FindStringSubmatch(text); m != nil {
		if cost, err := strconv.ParseFloat(m[2], 64); err == nil {
			node.Cost, node.HasCost = cost, true
		}
		if rows, err := strconv.ParseInt(m[3], 10, 64); err == nil {
			node.Rows, node.HasRows = rows, true
		}
	}
	if m := actualRe.FindStringSubmatch(text); m != nil {
		if rows, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			node.ActualRows, node.HasActualRows = rows, true
		}
	}
	return node
}

// parseMySQLText reads the bordered tabular EXPLAIN output. Rows become
// a chain of nodes: MySQL lists the join pipeline outermost first, which
// maps onto a left-deep tree.
func parseMySQLText(text string) (*Node, error) {
	var header []string
	var root, tail *Node

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "+") || !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitRow(line)
		if header == nil {
			header = make([]string, len(cells))
			for i, c := range cells {
				header[i] = strings.ToLower(c)
			}
			if !containsCell(header, "table") || !containsCell(header, "type") {
				return nil, &MalformedPlanError{Reason: "tabular header lacks table/type columns"}
			}
			continue
		}
		node := mysqlRowNode(header, cells)
		if root == nil {
			root, tail = node, node
			continue
		}
		tail.Children = append(tail.Children, node)
		tail = node
	}
	if root == nil {
		return nil, &MalformedPlanError{Reason: "no table rows found"}
	}
	return root, nil
}

func splitRow(line string) []string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func containsCell(cells []string, want string) bool {
	for _, c := range cells {
		if c == want {
			return true
		}
	}
	return false
}

func mysqlRowNode(header, cells []string) *Node {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(cells) {
			row[name] = cells[i]
		}
	}

	access := row["type"]
	node := &Node{Operation: accessOperation(access)}
	if t := row["table"]; t != "" && t != "NULL" {
		node.Table = t
	}
	if k := row["key"]; k != "" && k != "NULL" {
		node.Index = k
	}
	if rows, err := strconv.ParseInt(row["rows"], 10, 64); err == nil {
		node.Rows, node.HasRows = rows, true
	}
	if strings.EqualFold(access, "ALL") {
		node.Warning = "Full Table Scan"
	}
	return node
}

// accessOperation maps a MySQL access type onto an operation label.
func accessOperation(access string) string {
	switch strings.ToLower(access) {
	case "all":
		return "Table Scan"
	case "index":
		return "Index Scan"
	case "range":
		return "Range Scan"
	case "ref", "eq_ref":
		return "Index Lookup"
	case "const", "system":
		return "Constant Lookup"
	case "fulltext":
		return "Fulltext Scan"
	case "", "null":
		return "Query"
	}
	return access
}
