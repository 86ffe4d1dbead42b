package analyzer

import "sqlsage/internal/sqlast"

// Options tunes detection. The zero value runs every check with the
// built-in heuristics.
type Options struct {
	// Schema maps "table.column" or bare "column" to a declared SQL type,
	// sharpening the implicit-cast check beyond the name heuristic.
	Schema map[string]string
}

// Detect runs every registered check against the query tree and returns
// the findings grouped by check registration order. Repeated calls on
// the same tree produce the same list.
func Detect(root sqlast.Node, opts *Options) []Finding {
	if root == nil {
		return nil
	}
	if opts == nil {
		opts = &Options{}
	}

	dc := &detectContext{
		opts:     opts,
		cteNames: collectCTENames(root),
	}
	scopes := CollectScopes(root)

	var findings []Finding
	for _, c := range defaultChecks {
		for _, sc := range scopes {
			findings = append(findings, c(sc, dc)...)
		}
	}
	return findings
}
