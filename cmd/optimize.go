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

var optimizeCmd = &cobra.Command{
	Use:   "optimize [file]",
	Short: "Rewrite a query and measure the improvement",
	Long: `Rewrite a SQL query into an equivalent form that should cost less.

The rewritten query is compared against the original: complexity
score, tree size, and which findings the rewrite resolved, introduced,
or left in place. Alternative formulations of the query are listed
alongside the main rewrite.

Use "-" to read from stdin. If no file is provided, enters interactive
mode.`,
	Example: `  # Optimize from file
  sqlsage optimize query.sql

  # Read from stdin
  cat query.sql | sqlsage optimize -

  # JSON output for scripting
  sqlsage optimize query.sql --format json`,
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
		resp, err := eng.OptimizeQuery(engine.OptimizeRequest{SQL: sql, Dialect: resolveDialect(cmd, cfg)})
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return output.RenderJSON(os.Stdout, resp)
		case "text":
			return output.RenderOptimizationText(os.Stdout, resp, useColor(cfg))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().StringP("dialect", "d", "", "SQL dialect: postgres, mysql, oracle, tsql, generic")
	optimizeCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
}
