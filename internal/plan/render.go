package plan

import (
	"fmt"
	"strings"
)

// Render prints the tree with box-drawing prefixes. Output is a pure
// function of the tree: identical trees render byte-identically, which
// snapshot tests rely on.
func Render(root *Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(nodeText(root))
	b.WriteByte('\n')
	renderChildren(&b, root.Children, "")
	return b.String()
}

func renderChildren(b *strings.Builder, children []*Node, prefix string) {
	for i, child := range children {
		connector, continuation := "├─ ", "│  "
		if i == len(children)-1 {
			connector, continuation = "└─ ", "   "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(nodeText(child))
		b.WriteByte('\n')
		renderChildren(b, child.Children, prefix+continuation)
	}
}

// nodeText formats one node: operation, its source table and index, then
// whichever estimates the input actually carried.
func nodeText(n *Node) string {
	var b strings.Builder
	b.WriteString(n.Operation)
	if n.Table != "" {
		b.WriteString(" on " + n.Table)
	}
	if n.Index != "" {
		b.WriteString(" using " + n.Index)
	}

	var parts []string
	if n.HasCost {
		parts = append(parts, fmt.Sprintf("cost=%.2f", n.Cost))
	}
	if n.HasRows {
		parts = append(parts, fmt.Sprintf("rows=%d", n.Rows))
	}
	if n.HasActualRows {
		parts = append(parts, fmt.Sprintf("actual rows=%d", n.ActualRows))
	}
	if len(parts) > 0 {
		b.WriteString(" (" + strings.Join(parts, " ") + ")")
	}
	if n.Warning != "" {
		b.WriteString(" [WARNING: " + n.Warning + "]")
	}
	return b.String()
}

// Summarize rolls a plan tree up into the headline numbers: root cost
// and row estimate, node count, and every table read by a full scan.
func Summarize(root *Node) Summary {
	var s Summary
	if root == nil {
		return s
	}
	if root.HasCost {
		s.TotalCost, s.HasCost = root.Cost, true
	}
	if root.HasRows {
		s.EstimatedRows, s.HasRows = root.Rows, true
	}

	seen := make(map[string]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		s.NodeCount++
		if fullScan(n) && n.Table != "" && !seen[n.Table] {
			seen[n.Table] = true
			s.FullScans = append(s.FullScans, n.Table)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return s
}

func fullScan(n *Node) bool {
	return strings.Contains(n.Operation, "Seq Scan") || n.Warning == "Full Table Scan"
}
