package analyzer

import "sqlsage/internal/sqlast"

const (
	JoinWeight         = 1
	ExtraJoinThreshold = 3
	ExtraJoinWeight    = 2 // per join beyond ExtraJoinThreshold
	SetOpWeight        = 2
	AggregateWeight    = 1
	WindowWeight       = 1
	GroupByWeight      = 1
	HavingWeight       = 1
	OrderByWeight      = 1

	SaturationScore = 10
)

// scoreBands maps the raw weighted sum to a 1..10 score. Each entry
// covers raw values up to and including maxRaw; sums past the last band
// saturate at 10.
var scoreBands = []struct {
	maxRaw int
	score  int
}{
	{0, 1},
	{1, 2},
	{2, 3},
	{3, 4},
	{4, 5},
	{6, 6},
	{8, 7},
	{11, 8},
	{14, 9},
}

// Score computes the complexity of a query tree in a single traversal.
// Identical trees always produce identical reports.
func Score(root sqlast.Node) Complexity {
	var t tally
	t.visit(root, 0)

	joins := t.joins * JoinWeight
	if t.joins > ExtraJoinThreshold {
		joins += (t.joins - ExtraJoinThreshold) * ExtraJoinWeight
	}

	c := Complexity{}
	c.add("joins", joins)
	c.add("subqueries", t.subqueries)
	c.add("set_ops", t.setOps*SetOpWeight)
	c.add("aggregates", boolWeight(t.aggregates, AggregateWeight))
	c.add("window_functions", boolWeight(t.windows, WindowWeight))
	c.add("group_by", boolWeight(t.groupBy, GroupByWeight))
	c.add("having", boolWeight(t.having, HavingWeight))
	c.add("order_by", boolWeight(t.orderBy, OrderByWeight))

	c.Score = band(c.Raw)
	return c
}

func (c *Complexity) add(name string, contribution int) {
	if contribution <= 0 {
		return
	}
	c.Breakdown = append(c.Breakdown, Factor{Name: name, Contribution: contribution})
	c.Raw += contribution
}

func band(raw int) int {
	for _, b := range scoreBands {
		if raw <= b.maxRaw {
			return b.score
		}
	}
	return SaturationScore
}

func boolWeight(present bool, weight int) int {
	if present {
		return weight
	}
	return 0
}

type tally struct {
	joins      int
	subqueries int // each subquery adds its 1-based nesting depth
	setOps     int
	aggregates bool
	windows    bool
	groupBy    bool
	having     bool
	orderBy    bool
}

func (t *tally) visit(n sqlast.Node, subDepth int) {
	if n == nil {
		return
	}

	switch v := n.(type) {
	case *sqlast.Select:
		// a FROM list of k items implies k-1 cross joins
		if len(v.From) > 1 {
			t.joins += len(v.From) - 1
		}
		if v.GroupBy != nil {
			t.groupBy = true
		}
		if v.Having != nil {
			t.having = true
		}
		if v.OrderBy != nil {
			t.orderBy = true
		}
	case *sqlast.SetOp:
		t.setOps++
		if v.OrderBy != nil {
			t.orderBy = true
		}
	case *sqlast.Join:
		t.joins++
	case *sqlast.Aggregate:
		t.aggregates = true
	case *sqlast.FuncCall:
		if v.Window {
			t.windows = true
		}
	case *sqlast.Subquery:
		t.subqueries += subDepth + 1
		t.visit(v.Query, subDepth+1)
		return
	case *sqlast.InSubquery:
		t.subqueries += subDepth + 1
		t.visit(v.Expr, subDepth)
		t.visit(v.Query, subDepth+1)
		return
	case *sqlast.Exists:
		t.subqueries += subDepth + 1
		t.visit(v.Query, subDepth+1)
		return
	}

	for _, child := range n.Children() {
		t.visit(child, subDepth)
	}
}
