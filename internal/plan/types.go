// Package plan parses EXPLAIN output into an operation tree and renders
// it as an ASCII diagram. Two text grammars are understood, the
// arrow/indent format of PostgreSQL and the bordered tabular format of
// MySQL, plus the JSON forms both servers emit. The package never talks
// to a database; it works on whatever text the caller captured.
package plan

// Node is one operation of an execution plan. Estimate fields carry a
// Has flag because both grammars can omit them (COSTS OFF, NULL cells),
// and zero is a legitimate estimate.
type Node struct {
	Operation string
	Table     string
	Index     string

	Cost    float64
	HasCost bool

	Rows    int64
	HasRows bool

	ActualRows    int64
	HasActualRows bool

	// Warning flags operations worth a second look, e.g. a full table
	// scan reported by MySQL's ALL access type.
	Warning string

	Children []*Node
}

// MalformedPlanError reports input that matches no supported plan
// grammar. Callers degrade the visualization only; analysis of the
// query itself proceeds.
type MalformedPlanError struct {
	Reason string
}

func (e *MalformedPlanError) Error() string {
	return "malformed explain plan: " + e.Reason
}

// Format selects which text grammar to parse.
type Format int

const (
	FormatAuto Format = iota
	FormatPostgres
	FormatMySQL
)

func (f Format) String() string {
	switch f {
	case FormatPostgres:
		return "postgres"
	case FormatMySQL:
		return "mysql"
	}
	return "auto"
}

// ParseFormat maps a dialect name onto a plan format. Dialects whose
// explain output has no modeled grammar fall back to auto-detection.
func ParseFormat(hint string) Format {
	switch hint {
	case "postgres":
		return FormatPostgres
	case "mysql":
		return FormatMySQL
	}
	return FormatAuto
}

// Summary is the roll-up shown under a rendered plan.
type Summary struct {
	TotalCost     float64  `json:"total_cost,omitempty"`
	HasCost       bool     `json:"-"`
	EstimatedRows int64    `json:"estimated_rows,omitempty"`
	HasRows       bool     `json:"-"`
	NodeCount     int      `json:"node_count"`
	FullScans     []string `json:"full_scans,omitempty"`
}
