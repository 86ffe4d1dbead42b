/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"sqlsage/internal/config"
	"sqlsage/internal/engine"
	"sqlsage/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over HTTP",
	Long: `Start an HTTP server exposing the analysis tools.

Routes:
  POST /tools/analyze_query
  POST /tools/optimize_query
  POST /tools/suggest_indexes
  GET  /health

Request and response bodies are JSON and mirror the JSON output of the
corresponding commands.`,
	Example: `  # Listen on the default address
  sqlsage serve

  # Pick an address
  sqlsage serve --listen 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("listen") && cfg.Listen != "" {
			listen = cfg.Listen
		}

		eng := engine.New(engine.Options{Schema: cfg.SchemaHints()})
		return server.New(eng).ListenAndServe(listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
}
