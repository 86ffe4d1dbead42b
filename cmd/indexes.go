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

var indexesCmd = &cobra.Command{
	Use:   "indexes [file]",
	Short: "Suggest indexes for a SQL query",
	Long: `Suggest indexes that would speed up a SQL query, with ready-to-run
CREATE INDEX statements.

Suggestions are ranked by priority. Equality predicates come before
range predicates in composite keys, and small select lists extend a
suggestion into a covering index.

Use "-" to read from stdin. If no file is provided, enters interactive
mode.`,
	Example: `  # Suggest from file
  sqlsage indexes query.sql

  # Postgres DDL with INCLUDE columns
  sqlsage indexes query.sql --dialect postgres

  # Read from stdin
  cat query.sql | sqlsage indexes -`,
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

		sql, err := resolveSQL(file)
		if err != nil {
			return err
		}

		eng := engine.New(engine.Options{Schema: cfg.SchemaHints()})
		resp, err := eng.SuggestIndexes(engine.SuggestRequest{SQL: sql, Dialect: resolveDialect(cmd, cfg)})
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, resp)
		case "text":
			return output.RenderSuggestionsText(os.Stdout, resp, useColor(cfg))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
	indexesCmd.Flags().StringP("dialect", "d", "", "SQL dialect: postgres, mysql, oracle, tsql, generic")
	indexesCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}
