/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"sqlsage/internal/config"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// resolveSQL reads the query to operate on. The input is a file path,
// "-" for stdin, or empty for interactive paste mode.
func resolveSQL(input string) (string, error) {
	data, err := readInput(input, "SQL query")
	if err != nil {
		return "", err
	}

	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return "", fmt.Errorf("no SQL input provided")
	}
	return sql, nil
}

func resolvePlan(input string) (string, error) {
	data, err := readInput(input, "EXPLAIN output")
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no plan input provided")
	}
	return text, nil
}

func readInput(input string, label string) ([]byte, error) {
	switch input {
	case "":
		return readInteractive(label)
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(input)
	}
}

func readInteractive(label string) ([]byte, error) {
	fmt.Printf("Paste your %s", label)
	if runtime.GOOS == "windows" {
		fmt.Print(" (Ctrl+Z, Enter to submit)\n")
	} else {
		fmt.Print(" (Ctrl+D to submit)\n")
	}

	return io.ReadAll(os.Stdin)
}

// resolveDialect prefers the --dialect flag, then the configured
// default. Empty means auto-detection.
func resolveDialect(cmd *cobra.Command, cfg *config.Config) string {
	dialect, _ := cmd.Flags().GetString("dialect")
	if dialect == "" {
		dialect = cfg.Dialect
	}
	return dialect
}

// resolveFormat prefers an explicit --format flag, then the configured
// default, then the flag default.
func resolveFormat(cmd *cobra.Command, cfg *config.Config) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		format = cfg.Format
	}

	if format != "text" && format != "json" {
		return "", fmt.Errorf("invalid output format %q: must be \"text\" or \"json\"", format)
	}
	return format, nil
}

func useColor(cfg *config.Config) bool {
	return !cfg.NoColor && isatty.IsTerminal(os.Stdout.Fd())
}
