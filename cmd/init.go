/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"

	"sqlsage/internal/config"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with example template",
	Long: `Create the sqlsage config file with a commented example template.

The config stores the default dialect and output format, the serve
listen address, the history file location, and table schema hints that
sharpen type-mismatch detection. If a config file already exists, it
will not be overwritten.`,
	Example: `  # Create default config
  sqlsage init

  # Overwrite existing config
  sqlsage init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.Init(force)
		if err != nil {
			return err
		}

		fmt.Printf("Wrote config template to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")
}
