package analyzer

import "sqlsage/internal/sqlast"

// Scope is one SELECT with the context the checks need: where it sits in
// the tree, how deeply it is nested, and the joins and tables of its
// FROM clause. Derived tables start scopes of their own.
type Scope struct {
	Select *sqlast.Select
	Path   sqlast.Path
	Depth  int // 0 at the top level; +1 inside each subquery. CTE bodies keep their declaring scope's depth.
	Joins  int
	Tables []TableRef
}

type TableRef struct {
	Name  string
	Alias string
}

func (r TableRef) Ref() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// detectContext is shared by all checks of one Detect run.
type detectContext struct {
	opts     *Options
	cteNames map[string]bool
}

// CollectScopes lists every SELECT scope in pre-order. The arms of a
// set operation count as separate scopes at the same depth.
func CollectScopes(root sqlast.Node) []*Scope {
	var scopes []*Scope
	collectScopes(root, nil, 0, &scopes)
	return scopes
}

func collectScopes(n sqlast.Node, path sqlast.Path, depth int, out *[]*Scope) {
	if n == nil {
		return
	}
	if sel, ok := n.(*sqlast.Select); ok {
		*out = append(*out, newScope(sel, path, depth))
	}
	for i, child := range n.Children() {
		childPath := append(path[:len(path):len(path)], i)
		collectScopes(child, childPath, childDepth(n, child, depth), out)
	}
}

func childDepth(parent, child sqlast.Node, depth int) int {
	switch p := parent.(type) {
	case *sqlast.Subquery:
		if child == p.Query {
			return depth + 1
		}
	case *sqlast.InSubquery:
		if child == p.Query {
			return depth + 1
		}
	case *sqlast.Exists:
		if child == p.Query {
			return depth + 1
		}
	}
	return depth
}

func newScope(sel *sqlast.Select, path sqlast.Path, depth int) *Scope {
	sc := &Scope{
		Select: sel,
		Path:   path[:len(path):len(path)],
		Depth:  depth,
	}
	for _, f := range sel.From {
		sc.addFromItem(f)
	}
	if len(sel.From) > 1 {
		sc.Joins += len(sel.From) - 1
	}
	return sc
}

// addFromItem tallies joins and tables of one FROM item. Derived tables
// are not descended into; their contents form separate scopes.
func (sc *Scope) addFromItem(n sqlast.Node) {
	switch v := n.(type) {
	case *sqlast.Table:
		sc.Tables = append(sc.Tables, TableRef{Name: v.Name, Alias: v.Alias})
	case *sqlast.Join:
		sc.Joins++
		sc.addFromItem(v.Left)
		sc.addFromItem(v.Right)
	}
}

// wherePath returns the path of the scope's WHERE predicate. Valid only
// when the predicate exists.
func (sc *Scope) wherePath() sqlast.Path {
	idx := len(sc.Select.With) + len(sc.Select.Columns) + len(sc.Select.From)
	return append(sc.Path[:len(sc.Path):len(sc.Path)], idx)
}

// walkScope visits nodes of a single scope in pre-order with their paths
// from the tree root, stopping at subquery boundaries. Boundary nodes
// themselves are visited; their query bodies are not.
func walkScope(n sqlast.Node, path sqlast.Path, visit func(n sqlast.Node, path sqlast.Path) bool) {
	if n == nil {
		return
	}
	if !visit(n, path) {
		return
	}
	for i, child := range n.Children() {
		if crossesScope(n, child) {
			continue
		}
		walkScope(child, append(path[:len(path):len(path)], i), visit)
	}
}

// crossesScope reports whether child is the query body of a node that
// opens a new scope.
func crossesScope(parent, child sqlast.Node) bool {
	switch p := parent.(type) {
	case *sqlast.Subquery:
		return child == p.Query
	case *sqlast.InSubquery:
		return child == p.Query
	case *sqlast.Exists:
		return child == p.Query
	case *sqlast.CTE:
		return child == p.Query
	}
	return false
}

// collectCTENames gathers every CTE name declared anywhere in the tree.
func collectCTENames(root sqlast.Node) map[string]bool {
	names := make(map[string]bool)
	sqlast.Walk(root, func(n sqlast.Node, _ sqlast.Path) bool {
		if cte, ok := n.(*sqlast.CTE); ok {
			names[cte.Name] = true
		}
		return true
	})
	return names
}
