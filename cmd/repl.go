/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sqlsage/internal/config"
	"sqlsage/internal/engine"
	"sqlsage/internal/history"
	"sqlsage/internal/output"
	"sqlsage/internal/plan"
	"sqlsage/internal/sqlast"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

// replHistoryWindow caps how many persisted entries seed the prompt
// history on startup.
const replHistoryWindow = 200

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive analysis shell",
	Long: `Start an interactive shell for iterating on queries.

Bare SQL input is analyzed. Prefix a query with \opt to rewrite it or
\idx to get index suggestions, and point \plan at a file containing
EXPLAIN output to visualize it. Input history is persisted across
sessions.`,
	Example: `  sqlsage repl
  sqlsage repl --dialect mysql`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		r := &repl{
			engine:  engine.New(engine.Options{Schema: cfg.SchemaHints()}),
			dialect: resolveDialect(cmd, cfg),
			color:   useColor(cfg),
		}

		var seed []string
		if path, err := cfg.HistoryFile(); err == nil {
			store, err := openHistory(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "history disabled: %v\n", err)
			} else {
				r.store = store
				defer store.Close()
				seed = recentInputs(store)
			}
		}

		fmt.Printf("sqlsage %s. Type \\h for help, \\q to quit.\n", Version)

		p := prompt.New(
			r.execute,
			r.complete,
			prompt.OptionTitle("sqlsage"),
			prompt.OptionPrefix("sqlsage> "),
			prompt.OptionHistory(seed),
		)
		p.Run()
		return nil
	},
}

type repl struct {
	engine  *engine.Engine
	dialect string
	color   bool
	store   *history.Store
}

func (r *repl) execute(in string) {
	in = strings.TrimSpace(in)
	if in == "" {
		return
	}

	if strings.HasPrefix(in, `\`) {
		r.command(in)
		return
	}

	r.analyze(in)
}

func (r *repl) command(in string) {
	word, rest, _ := strings.Cut(in, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case `\q`, `\quit`:
		fmt.Println("Bye")
		if r.store != nil {
			r.store.Close()
		}
		os.Exit(0)
	case `\h`, `\help`:
		r.help()
	case `\opt`:
		r.optimize(rest)
	case `\idx`:
		r.suggest(rest)
	case `\plan`:
		r.plan(rest)
	case `\dialect`:
		r.setDialect(rest)
	default:
		fmt.Printf("unknown command %s; type \\h for help\n", word)
	}
}

func (r *repl) help() {
	fmt.Println("sqlsage commands:")
	fmt.Println(`  <sql>            Analyze a query`)
	fmt.Println(`  \opt <sql>       Rewrite a query`)
	fmt.Println(`  \idx <sql>       Suggest indexes for a query`)
	fmt.Println(`  \plan <file>     Visualize an EXPLAIN output file`)
	fmt.Println(`  \dialect [name]  Show or set the SQL dialect`)
	fmt.Println(`  \h, \help        Display this help`)
	fmt.Println(`  \q, \quit        Exit the shell`)
}

func (r *repl) analyze(sql string) {
	resp, err := r.engine.AnalyzeQuery(engine.AnalyzeRequest{SQL: sql, Dialect: r.dialect})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	r.record("analyze_query", sql)

	if err := output.RenderAnalysisText(os.Stdout, resp, r.color); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (r *repl) optimize(sql string) {
	if sql == "" {
		fmt.Println(`usage: \opt <sql>`)
		return
	}

	resp, err := r.engine.OptimizeQuery(engine.OptimizeRequest{SQL: sql, Dialect: r.dialect})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	r.record("optimize_query", sql)

	if err := output.RenderOptimizationText(os.Stdout, resp, r.color); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (r *repl) suggest(sql string) {
	if sql == "" {
		fmt.Println(`usage: \idx <sql>`)
		return
	}

	resp, err := r.engine.SuggestIndexes(engine.SuggestRequest{SQL: sql, Dialect: r.dialect})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	r.record("suggest_indexes", sql)

	if err := output.RenderSuggestionsText(os.Stdout, resp, r.color); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (r *repl) plan(file string) {
	if file == "" {
		fmt.Println(`usage: \plan <file>`)
		return
	}

	text, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	root, err := plan.Parse(string(text), plan.ParseFormat(r.dialect))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	summary := plan.Summarize(root)

	if err := output.RenderPlanText(os.Stdout, plan.Render(root), &summary, r.color); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (r *repl) setDialect(name string) {
	if name == "" {
		current := r.dialect
		if current == "" {
			current = "auto"
		}
		fmt.Printf("dialect: %s\n", current)
		return
	}

	if _, err := sqlast.ParseDialect(name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	r.dialect = name
	fmt.Printf("dialect set to %s\n", name)
}

func (r *repl) record(tool, sql string) {
	if r.store == nil {
		return
	}
	err := r.store.Append(history.Entry{Time: time.Now(), Tool: tool, SQL: sql})
	if err != nil {
		fmt.Fprintf(os.Stderr, "history write failed: %v\n", err)
	}
}

var replCommands = []prompt.Suggest{
	{Text: `\opt`, Description: "Rewrite the query that follows"},
	{Text: `\idx`, Description: "Suggest indexes for the query that follows"},
	{Text: `\plan`, Description: "Visualize an EXPLAIN output file"},
	{Text: `\dialect`, Description: "Show or set the SQL dialect"},
	{Text: `\help`, Description: "List shell commands"},
	{Text: `\quit`, Description: "Exit the shell"},
}

var sqlKeywords = []prompt.Suggest{
	{Text: "SELECT"}, {Text: "DISTINCT"}, {Text: "FROM"}, {Text: "WHERE"},
	{Text: "JOIN"}, {Text: "INNER"}, {Text: "LEFT"}, {Text: "RIGHT"},
	{Text: "FULL"}, {Text: "CROSS"}, {Text: "ON"}, {Text: "AND"},
	{Text: "OR"}, {Text: "NOT"}, {Text: "IN"}, {Text: "EXISTS"},
	{Text: "IS"}, {Text: "NULL"}, {Text: "LIKE"}, {Text: "BETWEEN"},
	{Text: "UNION"}, {Text: "INTERSECT"}, {Text: "EXCEPT"}, {Text: "ALL"},
	{Text: "GROUP"}, {Text: "HAVING"}, {Text: "ORDER"}, {Text: "BY"},
	{Text: "LIMIT"}, {Text: "OFFSET"}, {Text: "AS"}, {Text: "WITH"},
	{Text: "CASE"}, {Text: "WHEN"}, {Text: "THEN"}, {Text: "ELSE"},
	{Text: "END"}, {Text: "COUNT"}, {Text: "SUM"}, {Text: "AVG"},
	{Text: "MIN"}, {Text: "MAX"},
}

func (r *repl) complete(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if word == "" {
		return nil
	}

	if strings.HasPrefix(word, `\`) {
		return prompt.FilterHasPrefix(replCommands, word, true)
	}
	return prompt.FilterHasPrefix(sqlKeywords, word, true)
}

func openHistory(path string) (*history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return history.Open(path)
}

func recentInputs(store *history.Store) []string {
	entries, err := store.Recent(replHistoryWindow)
	if err != nil {
		return nil
	}

	inputs := make([]string, 0, len(entries))
	for _, e := range entries {
		inputs = append(inputs, replInput(e))
	}
	return inputs
}

// replInput reconstructs the line the user typed from a history entry.
func replInput(e history.Entry) string {
	switch e.Tool {
	case "optimize_query":
		return `\opt ` + e.SQL
	case "suggest_indexes":
		return `\idx ` + e.SQL
	default:
		return e.SQL
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringP("dialect", "d", "", "SQL dialect: postgres, mysql, oracle, tsql, generic")
}
