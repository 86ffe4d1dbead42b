// Package compare reports how a rewrite changed a query: complexity
// score movement, tree size movement, and which findings the rewrite
// resolved, introduced, or left in place.
package compare

import (
	"fmt"

	"sqlsage/internal/analyzer"
	"sqlsage/internal/sqlast"
)

// Compare scores and re-analyzes both trees and classifies every
// finding. Findings match across the two runs on kind, table, and
// column; the path is deliberately excluded because a rewrite moves
// nodes without resolving anything.
func Compare(before, after sqlast.Node, opts *analyzer.Options) Comparison {
	c := Comparison{}

	sb, sa := analyzer.Score(before), analyzer.Score(after)
	c.ScoreBefore, c.ScoreAfter = sb.Score, sa.Score
	c.ScoreDelta = sa.Score - sb.Score
	c.ScorePct = pctChange(float64(sb.Score), float64(sa.Score))
	c.ScoreDir = scoreDirection(c.ScoreDelta)

	c.NodesBefore = sqlast.CountNodes(before)
	c.NodesAfter = sqlast.CountNodes(after)
	c.NodesDelta = c.NodesAfter - c.NodesBefore

	fb := analyzer.Detect(before, opts)
	fa := analyzer.Detect(after, opts)
	classify(&c, fb, fa)

	c.Verdict = verdict(&c)
	return c
}

// classify splits the two finding lists into resolved, introduced, and
// persisting. Keys repeat (two star selects in one query), so matching
// is by count per key rather than set membership.
func classify(c *Comparison, before, after []analyzer.Finding) {
	beforeCount := make(map[string]int, len(before))
	for _, f := range before {
		beforeCount[findingKey(f)]++
	}
	afterCount := make(map[string]int, len(after))
	for _, f := range after {
		afterCount[findingKey(f)]++
	}

	used := make(map[string]int, len(before))
	for _, f := range before {
		k := findingKey(f)
		used[k]++
		if used[k] > afterCount[k] {
			c.Resolved = append(c.Resolved, f)
		}
	}

	seen := make(map[string]int, len(after))
	for _, f := range after {
		k := findingKey(f)
		seen[k]++
		if seen[k] > beforeCount[k] {
			c.Introduced = append(c.Introduced, f)
		} else {
			c.Persisting = append(c.Persisting, f)
		}
	}
}

func findingKey(f analyzer.Finding) string {
	return f.Kind + "|" + f.Table + "|" + f.Column
}

func scoreDirection(delta int) Direction {
	switch {
	case delta < 0:
		return Improved
	case delta > 0:
		return Regressed
	}
	return Unchanged
}

// verdict condenses the comparison to one line. The score decides the
// headline; an equal score falls back to the finding counts.
func verdict(c *Comparison) string {
	dir := c.ScoreDir
	if dir == Unchanged {
		if d := len(c.Resolved) - len(c.Introduced); d > 0 {
			dir = Improved
		} else if d < 0 {
			dir = Regressed
		}
	}
	if dir == Unchanged {
		return "unchanged"
	}
	findingsBefore := len(c.Persisting) + len(c.Resolved)
	findingsAfter := len(c.Persisting) + len(c.Introduced)
	return fmt.Sprintf("%s: complexity %d to %d, findings %d to %d",
		dir, c.ScoreBefore, c.ScoreAfter, findingsBefore, findingsAfter)
}

func pctChange(old, new float64) float64 {
	if old == 0 {
		if new == 0 {
			return 0
		}
		return 100
	}
	return ((new - old) / old) * 100
}
