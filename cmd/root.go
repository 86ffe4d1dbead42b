/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var Version = "dev"

func init() {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	}
	rootCmd.Version = Version
}

var rootCmd = &cobra.Command{
	Use:          "sqlsage",
	SilenceUsage: true,
	Short:        "Review, rewrite, and index SQL queries offline",
	Long: `sqlsage reviews SQL queries without connecting to a database.

It scores query complexity, flags common anti-patterns, proposes
rewritten queries and index DDL, and renders EXPLAIN output as an
ASCII plan tree. Postgres, MySQL, Oracle and T-SQL dialects are
understood.`,
	Example: `  # Analyze a query
  sqlsage analyze query.sql

  # Rewrite a query and show the before/after comparison
  sqlsage optimize query.sql

  # Serve the tools over HTTP
  sqlsage serve --listen :8080`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
