package compare

import (
	"fmt"

	"sqlsage/internal/analyzer"
)

// Direction classifies a before/after movement. Lower complexity is
// better, so a falling score reads as Improved.
type Direction int

const (
	Unchanged Direction = 0
	Improved  Direction = 1
	Regressed Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	default:
		return "unchanged"
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"unchanged"`:
		*d = Unchanged
	case `"improved"`:
		*d = Improved
	case `"regressed"`:
		*d = Regressed
	default:
		return fmt.Errorf("unknown direction %s", data)
	}
	return nil
}

// Comparison holds the before/after report for a rewritten query: the
// complexity movement, the structural size movement, and each finding
// classified as resolved, introduced, or persisting.
type Comparison struct {
	ScoreBefore int       `json:"score_before"`
	ScoreAfter  int       `json:"score_after"`
	ScoreDelta  int       `json:"score_delta"`
	ScorePct    float64   `json:"score_delta_percent"`
	ScoreDir    Direction `json:"score_direction"`

	NodesBefore int `json:"nodes_before"`
	NodesAfter  int `json:"nodes_after"`
	NodesDelta  int `json:"nodes_delta"`

	Resolved   []analyzer.Finding `json:"findings_resolved,omitempty"`
	Introduced []analyzer.Finding `json:"findings_introduced,omitempty"`
	Persisting []analyzer.Finding `json:"findings_persisting,omitempty"`

	Verdict string `json:"verdict"`
}
