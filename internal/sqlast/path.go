package sqlast

import (
	"strconv"
	"strings"
)

// Path addresses a node by child indices from a tree root. Paths stay
// valid across clones of the same tree shape, which is why findings carry
// them instead of node pointers.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// Resolve follows the path from root and returns the addressed node. The
// second result is false when the path does not fit the tree.
func Resolve(root Node, p Path) (Node, bool) {
	n := root
	for _, idx := range p {
		children := n.Children()
		if idx < 0 || idx >= len(children) {
			return nil, false
		}
		n = children[idx]
	}
	return n, true
}
