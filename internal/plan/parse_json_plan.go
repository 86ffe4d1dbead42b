package plan

import (
	"encoding/json"
	"strconv"
	"strings"
)

// jsonPlanNode mirrors the slice of EXPLAIN (FORMAT JSON) fields the
// tree needs. Estimates are pointers so COSTS OFF output keeps its Has
// flags unset.
type jsonPlanNode struct {
	NodeType     string         `json:"Node Type"`
	RelationName string         `json:"Relation Name"`
	IndexName    string         `json:"Index Name"`
	TotalCost    *float64       `json:"Total Cost"`
	PlanRows     *int64         `json:"Plan Rows"`
	ActualRows   *int64         `json:"Actual Rows"`
	Plans        []jsonPlanNode `json:"Plans"`
}

// explainOutput is the envelope PostgreSQL wraps around each plan.
type explainOutput struct {
	Plan *jsonPlanNode `json:"Plan"`
}

// mysqlExplain is the envelope of EXPLAIN FORMAT=JSON on MySQL. The
// block is kept generic: its keys vary by server version, so the walk
// picks out the shapes it knows.
type mysqlExplain struct {
	QueryBlock map[string]any `json:"query_block"`
}

func parseJSON(data []byte) (*Node, error) {
	var outputs []explainOutput
	if err := json.Unmarshal(data, &outputs); err == nil && len(outputs) > 0 && outputs[0].Plan != nil {
		return fromJSONNode(outputs[0].Plan), nil
	}
	var single explainOutput
	if err := json.Unmarshal(data, &single); err == nil && single.Plan != nil {
		return fromJSONNode(single.Plan), nil
	}
	var mysql mysqlExplain
	if err := json.Unmarshal(data, &mysql); err == nil && mysql.QueryBlock != nil {
		return fromQueryBlock(mysql.QueryBlock), nil
	}
	return nil, &MalformedPlanError{Reason: "unrecognized explain JSON shape"}
}

func fromJSONNode(j *jsonPlanNode) *Node {
	node := &Node{
		Operation: j.NodeType,
		Table:     j.RelationName,
		Index:     j.IndexName,
	}
	if j.TotalCost != nil {
		node.Cost, node.HasCost = *j.TotalCost, true
	}
	if j.PlanRows != nil {
		node.Rows, node.HasRows = *j.PlanRows, true
	}
	if j.ActualRows != nil {
		node.ActualRows, node.HasActualRows = *j.ActualRows, true
	}
	for i := range j.Plans {
		node.Children = append(node.Children, fromJSONNode(&j.Plans[i]))
	}
	return node
}

// fromQueryBlock converts MySQL's JSON form. The synthetic Query Block
// root keeps the overall cost and gives repeated renders a stable shape.
func fromQueryBlock(block map[string]any) *Node {
	node := &Node{Operation: "Query Block"}
	if ci, ok := block["cost_info"].(map[string]any); ok {
		if cost, ok := jsonFloat(ci["query_cost"]); ok {
			node.Cost, node.HasCost = cost, true
		}
	}
	appendBlockChildren(node, block)
	return node
}

// appendBlockChildren walks the keys of one query-block level in a fixed
// order so rendering stays deterministic.
func appendBlockChildren(parent *Node, m map[string]any) {
	if op, ok := m["ordering_operation"].(map[string]any); ok {
		child := &Node{Operation: "Sort"}
		appendBlockChildren(child, op)
		parent.Children = append(parent.Children, child)
	}
	if op, ok := m["grouping_operation"].(map[string]any); ok {
		child := &Node{Operation: "Group"}
		appendBlockChildren(child, op)
		parent.Children = append(parent.Children, child)
	}
	if op, ok := m["duplicates_removal"].(map[string]any); ok {
		child := &Node{Operation: "Distinct"}
		appendBlockChildren(child, op)
		parent.Children = append(parent.Children, child)
	}
	if list, ok := m["nested_loop"].([]any); ok {
		loop := &Node{Operation: "Nested Loop"}
		for _, item := range list {
			if im, ok := item.(map[string]any); ok {
				appendBlockChildren(loop, im)
			}
		}
		parent.Children = append(parent.Children, loop)
	}
	if tm, ok := m["table"].(map[string]any); ok {
		parent.Children = append(parent.Children, mysqlJSONTable(tm))
	}
}

func mysqlJSONTable(m map[string]any) *Node {
	access, _ := m["access_type"].(string)
	node := &Node{Operation: accessOperation(access)}
	if name, ok := m["table_name"].(string); ok {
		node.Table = name
	}
	if key, ok := m["key"].(string); ok {
		node.Index = key
	}
	if rows, ok := jsonFloat(m["rows_examined_per_scan"]); ok {
		node.Rows, node.HasRows = int64(rows), true
	}
	if ci, ok := m["cost_info"].(map[string]any); ok {
		if cost, ok := jsonFloat(ci["read_cost"]); ok {
			node.Cost, node.HasCost = cost, true
		}
	}
	if strings.EqualFold(access, "ALL") {
		node.Warning = "Full Table Scan"
	}
	if sub, ok := m["materialized_from_subquery"].(map[string]any); ok {
		if qb, ok := sub["query_block"].(map[string]any); ok {
			child := &Node{Operation: "Materialize"}
			appendBlockChildren(child, qb)
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// jsonFloat reads a JSON number or one of MySQL's quoted numeric
// strings like "1250.00".
func jsonFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
