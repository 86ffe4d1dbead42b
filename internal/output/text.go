package output

import (
	"fmt"
	"io"
	"strings"

	"sqlsage/internal/analyzer"
	"sqlsage/internal/compare"
	"sqlsage/internal/engine"
	"sqlsage/internal/indexer"
	"sqlsage/internal/plan"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// palette carries the active escape codes. The zero value renders plain
// text, which keeps every printf below color-agnostic.
type palette struct {
	reset, red, green, yellow, cyan, bold, dim string
}

var ansiPalette = palette{
	reset:  colorReset,
	red:    colorRed,
	green:  colorGreen,
	yellow: colorYellow,
	cyan:   colorCyan,
	bold:   colorBold,
	dim:    colorDim,
}

type textWriter struct {
	w   io.Writer
	err error
	pal palette
	hl  *Highlighter
}

func newTextWriter(w io.Writer, color bool) *textWriter {
	tw := &textWriter{w: w}
	if color {
		tw.pal = ansiPalette
		tw.hl = NewHighlighter()
	}
	return tw
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) sql(s string) string {
	if tw.hl == nil {
		return s
	}
	return tw.hl.SQL(s)
}

// indented writes a multi-line block two spaces in.
func (tw *textWriter) indented(block string) {
	for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		tw.printf("  %s\n", line)
	}
}

// RenderAnalysisText writes the analyze report: complexity breakdown,
// findings, warnings, and the plan section when one was requested.
func RenderAnalysisText(w io.Writer, resp *engine.AnalyzeResponse, color bool) error {
	tw := newTextWriter(w, color)

	tw.printf("%s%sComplexity%s\n\n", tw.pal.bold, tw.pal.cyan, tw.pal.reset)
	tw.printf("  Score: %s%d/10%s\n", tw.scoreColor(resp.Complexity.Score), resp.Complexity.Score, tw.pal.reset)
	for _, f := range resp.Complexity.Breakdown {
		tw.printf("  %s%-18s%s +%d\n", tw.pal.dim, f.Name, tw.pal.reset, f.Contribution)
	}
	tw.printf("\n")

	if len(resp.Warnings) > 0 {
		for _, warn := range resp.Warnings {
			tw.printf("  %sWarning: %s%s\n", tw.pal.yellow, warn, tw.pal.reset)
		}
		tw.printf("\n")
	}

	if len(resp.Findings) == 0 {
		tw.printf("%s%sNo issues found.%s\n", tw.pal.bold, tw.pal.green, tw.pal.reset)
	} else {
		tw.printf("%s%sFindings (%d)%s\n\n", tw.pal.bold, tw.pal.cyan, len(resp.Findings), tw.pal.reset)
		for i, f := range resp.Findings {
			tw.finding(f)
			if i < len(resp.Findings)-1 {
				tw.printf("\n")
			}
		}
	}

	if resp.PlanError != "" {
		tw.printf("\n%sPlan not rendered: %s%s\n", tw.pal.red, resp.PlanError, tw.pal.reset)
	}
	if resp.PlanVisualization != "" {
		tw.printf("\n%s%sExplain Plan%s\n\n", tw.pal.bold, tw.pal.cyan, tw.pal.reset)
		tw.indented(resp.PlanVisualization)
		if resp.PlanSummary != nil {
			tw.printf("\n")
			tw.planSummary(*resp.PlanSummary)
		}
	}

	return tw.err
}

func (tw *textWriter) finding(f analyzer.Finding) {
	label, color := tw.severityFormat(f.Severity)
	tw.printf("  %s%-8s%s %s\n", color, label, tw.pal.reset, f.Description)
	tw.printf("  %s→ %s%s\n", tw.pal.dim, f.Suggestion, tw.pal.reset)
}

func (tw *textWriter) severityFormat(s analyzer.Severity) (string, string) {
	switch s {
	case analyzer.Critical:
		return "CRITICAL", tw.pal.red
	case analyzer.High:
		return "HIGH", tw.pal.red
	case analyzer.Medium:
		return "MEDIUM", tw.pal.yellow
	default:
		return "LOW", tw.pal.cyan
	}
}

func (tw *textWriter) scoreColor(score int) string {
	switch {
	case score >= 8:
		return tw.pal.red
	case score >= 5:
		return tw.pal.yellow
	}
	return tw.pal.green
}

// RenderOptimizationText writes the rewritten query, what changed, the
// alternatives, and the before/after comparison.
func RenderOptimizationText(w io.Writer, resp *engine.OptimizeResponse, color bool) error {
	tw := newTextWriter(w, color)

	tw.printf("%s%sOptimized Query%s\n\n", tw.pal.bold, tw.pal.cyan, tw.pal.reset)
	tw.indented(tw.sql(resp.SQL))
	tw.printf("\n")

	if len(resp.RulesApplied) > 0 {
		tw.printf("  Rules applied:  %s\n", strings.Join(resp.RulesApplied, ", "))
		tw.printf("  Cost reduction: ~%d%%\n", resp.CostReduction)
	} else {
		tw.printf("  %sNo structural rewrite applied.%s\n", tw.pal.dim, tw.pal.reset)
	}

	for _, alt := range resp.Alternatives {
		tw.printf("\n%s%s%s%s %s%s%s\n\n", tw.pal.bold, alt.Label, tw.pal.reset,
			":", tw.pal.dim, alt.Description, tw.pal.reset)
		tw.indented(tw.sql(alt.SQL))
	}

	tw.printf("\n")
	tw.comparison(resp.Comparison)

	return tw.err
}

func (tw *textWriter) comparison(c compare.Comparison) {
	tw.printf("%s%sBefore / After%s\n\n", tw.pal.bold, tw.pal.cyan, tw.pal.reset)
	tw.printf("  Complexity: %d → %s%d%s %s\n", c.ScoreBefore,
		tw.dirColor(c.ScoreDir), c.ScoreAfter, tw.pal.reset, tw.dirArrow(c.ScoreDir))
	tw.printf("  Tree size:  %d → %d nodes\n", c.NodesBefore, c.NodesAfter)
	if len(c.Resolved) > 0 {
		tw.printf("  %sResolved:   %d finding(s)%s\n", tw.pal.green, len(c.Resolved), tw.pal.reset)
	}
	if len(c.Introduced) > 0 {
		tw.printf("  %sIntroduced: %d finding(s)%s\n", tw.pal.red, len(c.Introduced), tw.pal.reset)
	}
	if len(c.Persisting) > 0 {
		tw.printf("  Persisting: %d finding(s)\n", len(c.Persisting))
	}
	tw.printf("\n  Verdict: %s\n", c.Verdict)
}

func (tw *textWriter) dirColor(d compare.Direction) string {
	switch d {
	case compare.Improved:
		return tw.pal.green
	case compare.Regressed:
		return tw.pal.red
	}
	return ""
}

func (tw *textWriter) dirArrow(d compare.Direction) string {
	switch d {
	case compare.Improved:
		return "↓"
	case compare.Regressed:
		return "↑"
	}
	return ""
}

// RenderSuggestionsText writes the ranked index suggestions with their
// DDL statements.
func RenderSuggestionsText(w io.Writer, resp *engine.SuggestResponse, color bool) error {
	tw := newTextWriter(w, color)

	if len(resp.Suggestions) == 0 {
		tw.printf("%s%sNo index suggestions.%s\n", tw.pal.bold, tw.pal.green, tw.pal.reset)
		return tw.err
	}

	tw.printf("%s%sIndex Suggestions (%d)%s\n\n", tw.pal.bold, tw.pal.cyan, len(resp.Suggestions), tw.pal.reset)
	for i, s := range resp.Suggestions {
		tw.printf("  %d. %s%-8s%s %s\n", i+1,
			tw.priorityColor(s.Priority), strings.ToUpper(s.Priority.String()),
			tw.pal.reset, s.Reason)
		tw.printf("     %s\n", tw.sql(s.DDL))
		if len(s.Covering) > 0 {
			tw.printf("     %scovering: %s%s\n", tw.pal.dim, strings.Join(s.Covering, ", "), tw.pal.reset)
		}
		if s.IndexOnly {
			tw.printf("     %senables index-only scans%s\n", tw.pal.dim, tw.pal.reset)
		}
		if i < len(resp.Suggestions)-1 {
			tw.printf("\n")
		}
	}

	return tw.err
}

func (tw *textWriter) priorityColor(p indexer.Priority) string {
	switch p {
	case indexer.Critical, indexer.High:
		return tw.pal.red
	case indexer.Medium:
		return tw.pal.yellow
	}
	return tw.pal.cyan
}

// RenderPlanText writes an explain tree with its rollup.
func RenderPlanText(w io.Writer, visualization string, summary *plan.Summary, color bool) error {
	tw := newTextWriter(w, color)

	tw.printf("%s", visualization)
	if summary != nil {
		tw.printf("\n")
		tw.planSummary(*summary)
	}
	return tw.err
}

func (tw *textWriter) planSummary(s plan.Summary) {
	if s.HasCost {
		tw.printf("  Total Cost:     %.2f\n", s.TotalCost)
	}
	if s.HasRows {
		tw.printf("  Estimated Rows: %d\n", s.EstimatedRows)
	}
	tw.printf("  Nodes:          %d\n", s.NodeCount)
	if len(s.FullScans) > 0 {
		tw.printf("  %sFull scans:     %s%s\n", tw.pal.red, strings.Join(s.FullScans, ", "), tw.pal.reset)
	}
}
