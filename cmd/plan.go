/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"os"

	"sqlsage/internal/config"
	"sqlsage/internal/output"
	"sqlsage/internal/plan"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [file]",
	Short: "Visualize EXPLAIN output as an ASCII tree",
	Long: `Render database EXPLAIN output as an ASCII plan tree with a cost and
scan summary.

Postgres text and JSON plans and MySQL tabular and JSON plans are
recognized. The grammar is detected from the input; pass --dialect to
force one. Use "-" to read from stdin. If no file is provided, enters
interactive mode.`,
	Example: `  # Visualize saved EXPLAIN output
  sqlsage plan explain.txt

  # Pipe EXPLAIN output in
  psql -qAtc 'EXPLAIN SELECT * FROM users' | sqlsage plan -

  # Force the MySQL grammar
  sqlsage plan explain.txt --dialect mysql`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		format, err := resolveFormat(cmd, cfg)
		if err != nil {
			return err
		}

		var file string
		if len(args) > 0 {
			file = args[0]
		}

		text, err := resolvePlan(file)
		if err != nil {
			return err
		}

		root, err := plan.Parse(text, plan.ParseFormat(resolveDialect(cmd, cfg)))
		if err != nil {
			return err
		}
		summary := plan.Summarize(root)

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, planResult{
				Visualization: plan.Render(root),
				Summary:       summary,
			})
		case "text":
			return output.RenderPlanText(os.Stdout, plan.Render(root), &summary, useColor(cfg))
		}

		return nil
	},
}

type planResult struct {
	Visualization string       `json:"visualization"`
	Summary       plan.Summary `json:"summary"`
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringP("dialect", "d", "", "Plan grammar: postgres, mysql (default: auto-detect)")
	planCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}
