package output

import (
	"encoding/json"
	"io"
)

// RenderJSON writes v as indented JSON. HTML escaping is off so SQL
// comparisons like "a > 1" survive verbatim in DDL and verdict strings.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
