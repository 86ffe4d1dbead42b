/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"os"

	"sqlsage/internal/config"
	"sqlsage/internal/engine"
	"sqlsage/internal/output"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a SQL query for complexity and anti-patterns",
	Long: `Analyze a SQL query and report a complexity score, detected
anti-patterns, and suggestions for addressing them.

Input can be a SQL file. Use "-" to read from stdin. If no file is
provided, enters interactive mode. The dialect is detected from the
query text unless --dialect is given.

Pass --plan with a file containing EXPLAIN output to render the plan
tree alongside the analysis.`,
	Example: `  # Analyze from file
  sqlsage analyze query.sql

  # Force a dialect
  sqlsage analyze query.sql --dialect mysql

  # Attach EXPLAIN output
  sqlsage analyze query.sql --plan explain.txt

  # Read from stdin
  cat query.sql | sqlsage analyze -

  # Interactive mode
  sqlsage analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planFile, _ := cmd.Flags().GetString("plan")

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

		sql, err := resolveSQL(file)
		if err != nil {
			return err
		}

		req := engine.AnalyzeRequest{SQL: sql, Dialect: resolveDialect(cmd, cfg)}
		if planFile != "" {
			text, err := os.ReadFile(planFile)
			if err != nil {
				return err
			}
			req.ExplainPlan = string(text)
		}

		eng := engine.New(engine.Options{Schema: cfg.SchemaHints()})
		resp, err := eng.AnalyzeQuery(req)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, resp)
		case "text":
			return output.RenderAnalysisText(os.Stdout, resp, useColor(cfg))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("dialect", "d", "", "SQL dialect: postgres, mysql, oracle, tsql, generic")
	analyzeCmd.Flags().StringP("plan", "p", "", "File containing EXPLAIN output to render with the analysis")
	analyzeCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}
