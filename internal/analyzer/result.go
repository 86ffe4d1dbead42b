package analyzer

import "fmt"

type Severity int

const (
	Low      Severity = 0
	Medium   Severity = 1
	High     Severity = 2
	Critical Severity = 3
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"low"`:
		*s = Low
	case `"medium"`:
		*s = Medium
	case `"high"`:
		*s = High
	case `"critical"`:
		*s = Critical
	default:
		return fmt.Errorf("unknown severity %s", data)
	}
	return nil
}

// Finding is one detected anti-pattern. Path addresses the closest
// enclosing node in the analyzed tree; Table and Column narrow the
// location further where they are known.
type Finding struct {
	Kind        string   `json:"kind"`
	Severity    Severity `json:"severity"`
	Table       string   `json:"table,omitempty"`
	Column      string   `json:"column,omitempty"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// Factor is one non-zero contribution to the raw complexity sum.
type Factor struct {
	Name         string `json:"name"`
	Contribution int    `json:"contribution"`
}

// Complexity is the banded score with its breakdown. Raw is the weighted
// sum before banding; Score is always within 1..10.
type Complexity struct {
	Score     int      `json:"score"`
	Raw       int      `json:"raw"`
	Breakdown []Factor `json:"breakdown"`
}
