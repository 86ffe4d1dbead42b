package config

import (
	"fmt"
	"os"
)

const template = `# sqlsage configuration.
#
# Every setting is optional; command-line flags override anything here.

# Default SQL dialect when a query leaves detection ambiguous.
# One of: postgres, mysql, oracle, tsql, generic.
#dialect: postgres

# Default output format: text or json.
#format: text

# Bind address for sqlsage serve.
#listen: localhost:8080

# REPL history location. Defaults to history.db next to this file.
#history_path: ~/.local/share/sqlsage/history.db

# Disable ANSI color in text output.
#no_color: true

# Schema hints. Declaring column types sharpens implicit-cast detection;
# queries touching undeclared columns fall back to name heuristics.
#tables:
#  users:
#    id: integer
#    email: text
#  orders:
#    user_id: integer
#    total: numeric(10,2)
`

// Init writes the commented template and returns its path. An existing
// file is left alone unless force is set.
func Init(force bool) (string, error) {
	if err := ensureConfigDir(); err != nil {
		return "", err
	}

	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s, pass --force to overwrite", path)
		}
	}

	if err := os.WriteFile(path, []byte(template), 0600); err != nil {
		return "", fmt.Errorf("writing config %s: %w", path, err)
	}
	return path, nil
}
