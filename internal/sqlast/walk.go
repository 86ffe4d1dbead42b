package sqlast

// Walk visits n and its descendants in depth-first pre-order. The visitor
// receives each node with its path from the walk root; returning false
// stops descent into that node's children.
func Walk(n Node, visit func(n Node, path Path) bool) {
	walk(n, nil, visit)
}

func walk(n Node, path Path, visit func(n Node, path Path) bool) {
	if n == nil {
		return
	}
	if !visit(n, path) {
		return
	}
	for i, child := range n.Children() {
		walk(child, append(path[:len(path):len(path)], i), visit)
	}
}

// CountNodes returns the number of nodes in the tree, the structural size
// metric used for rewrite cost estimates.
func CountNodes(n Node) int {
	count := 0
	Walk(n, func(Node, Path) bool {
		count++
		return true
	})
	return count
}

// ContainsKind reports whether any node of the given kind appears in the
// tree, including the root.
func ContainsKind(n Node, kind Kind) bool {
	found := false
	Walk(n, func(c Node, _ Path) bool {
		if c.Kind() == kind {
			found = true
		}
		return !found
	})
	return found
}

// Tables lists distinct table names referenced anywhere in the tree, in
// first-appearance order.
func Tables(n Node) []string {
	seen := make(map[string]bool)
	var out []string
	Walk(n, func(c Node, _ Path) bool {
		if t, ok := c.(*Table); ok && !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t.Name)
		}
		return true
	})
	return out
}
