package engine

import (
	"fmt"

	"sqlsage/internal/analyzer"
	"sqlsage/internal/compare"
	"sqlsage/internal/indexer"
	"sqlsage/internal/plan"
	"sqlsage/internal/rewrite"
	"sqlsage/internal/sqlast"
)

type AnalyzeRequest struct {
	SQL         string `json:"sql"`
	Dialect     string `json:"dialect,omitempty"`
	ExplainPlan string `json:"explain_plan,omitempty"`
}

type AnalyzeResponse struct {
	Dialect    sqlast.Dialect      `json:"dialect"`
	Complexity analyzer.Complexity `json:"complexity"`
	Findings   []analyzer.Finding  `json:"findings"`
	Warnings   []string            `json:"warnings,omitempty"`
	Summary    string              `json:"summary"`

	// Plan fields are only set when the request carried explain text.
	// A malformed plan fills PlanError and leaves the rest of the
	// analysis intact.
	PlanVisualization string        `json:"plan_visualization,omitempty"`
	PlanSummary       *plan.Summary `json:"plan_summary,omitempty"`
	PlanError         string        `json:"plan_error,omitempty"`
}

type OptimizeRequest struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect,omitempty"`
}

type OptimizeResponse struct {
	Dialect sqlast.Dialect `json:"dialect"`
	rewrite.Result
	Comparison compare.Comparison `json:"comparison"`
	Warnings   []string           `json:"warnings,omitempty"`
}

type SuggestRequest struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect,omitempty"`
}

type SuggestResponse struct {
	Dialect     sqlast.Dialect       `json:"dialect"`
	Suggestions []indexer.Suggestion `json:"suggestions"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// AnalyzeQuery scores the query, runs every anti-pattern check, and
// renders the explain plan when one is supplied.
func (e *Engine) AnalyzeQuery(req AnalyzeRequest) (*AnalyzeResponse, error) {
	res, err := e.parse(req.SQL, req.Dialect)
	if err != nil {
		return nil, err
	}

	findings := analyzer.Detect(res.Root, &analyzer.Options{Schema: e.schema})
	if findings == nil {
		findings = []analyzer.Finding{}
	}

	resp := &AnalyzeResponse{
		Dialect:    res.Dialect,
		Complexity: analyzer.Score(res.Root),
		Findings:   findings,
		Warnings:   res.Warnings,
	}
	resp.Summary = fmt.Sprintf("Found %d potential performance issues. Complexity score: %d/10",
		len(resp.Findings), resp.Complexity.Score)

	if req.ExplainPlan != "" {
		e.attachPlan(resp, req.ExplainPlan, res.Dialect)
	}
	return resp, nil
}

// attachPlan parses and renders explain text. Failures stay local to
// the plan fields: analyze_query still answers for the query itself.
func (e *Engine) attachPlan(resp *AnalyzeResponse, text string, dialect sqlast.Dialect) {
	format := plan.FormatAuto
	switch dialect {
	case sqlast.DialectPostgres:
		format = plan.FormatPostgres
	case sqlast.DialectMySQL:
		format = plan.FormatMySQL
	}

	tree, err := plan.Parse(text, format)
	if err != nil {
		resp.PlanError = err.Error()
		return
	}
	resp.PlanVisualization = plan.Render(tree)
	summary := plan.Summarize(tree)
	resp.PlanSummary = &summary
}

// OptimizeQuery rewrites the query and reports how the result compares
// to the input.
func (e *Engine) OptimizeQuery(req OptimizeRequest) (*OptimizeResponse, error) {
	res, err := e.parse(req.SQL, req.Dialect)
	if err != nil {
		return nil, err
	}

	rw := rewrite.Rewrite(res.Root)
	return &OptimizeResponse{
		Dialect:    res.Dialect,
		Result:     rw,
		Comparison: compare.Compare(res.Root, rw.Optimized, &analyzer.Options{Schema: e.schema}),
		Warnings:   res.Warnings,
	}, nil
}

// SuggestIndexes extracts predicate usage and returns the ranked
// suggestions with their DDL.
func (e *Engine) SuggestIndexes(req SuggestRequest) (*SuggestResponse, error) {
	res, err := e.parse(req.SQL, req.Dialect)
	if err != nil {
		return nil, err
	}

	suggestions := indexer.Suggest(res.Root, res.Dialect)
	if suggestions == nil {
		suggestions = []indexer.Suggestion{}
	}
	return &SuggestResponse{
		Dialect:     res.Dialect,
		Suggestions: suggestions,
		Warnings:    res.Warnings,
	}, nil
}
