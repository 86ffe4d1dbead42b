package output

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter colors SQL for terminal display. Every failure path falls
// back to the plain text, so callers can use the result unconditionally.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

func NewHighlighter() *Highlighter {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		lexer:     lexers.Get("sql"),
		formatter: formatter,
		style:     style,
	}
}

// SQL returns sql with ANSI color codes, or sql unchanged when
// highlighting is unavailable.
func (h *Highlighter) SQL(sql string) string {
	if h == nil || h.lexer == nil {
		return sql
	}
	iterator, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return sql
	}
	return strings.TrimRight(buf.String(), "\n")
}
