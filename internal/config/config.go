// Package config reads and writes the sqlsage settings file. Settings
// are defaults only: command-line flags always win, and a missing file
// behaves like an empty one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

var configDirFunc = configDir

// Config holds the persisted settings. Zero values mean "unset" and
// fall back to built-in defaults at the point of use.
type Config struct {
	// Dialect is the default SQL dialect when none is given and
	// detection stays ambiguous.
	Dialect string `yaml:"dialect,omitempty"`

	// Format is the default output format, text or json.
	Format string `yaml:"format,omitempty"`

	// Listen is the default bind address for the serve command.
	Listen string `yaml:"listen,omitempty"`

	// HistoryPath overrides where the REPL history database lives.
	HistoryPath string `yaml:"history_path,omitempty"`

	// NoColor disables ANSI output even on a terminal.
	NoColor bool `yaml:"no_color,omitempty"`

	// Tables maps table name to column name to declared SQL type.
	// The hints sharpen implicit-cast detection; queries touching
	// undeclared columns fall back to the name heuristics.
	Tables map[string]map[string]string `yaml:"tables,omitempty"`
}

// Load reads the config file. A missing file is not an error: it loads
// as the zero config so first runs work without an init step.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config, creating the directory on first use.
func Save(cfg *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// HistoryFile returns where the REPL history database lives: the
// configured override, or history.db next to the config file.
func (c *Config) HistoryFile() (string, error) {
	if c.HistoryPath != "" {
		return c.HistoryPath, nil
	}
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// SchemaHints flattens the tables section into the "table.column" form
// the analyzer consumes. Names are lowercased to match how the parser
// folds unquoted identifiers.
func (c *Config) SchemaHints() map[string]string {
	if len(c.Tables) == 0 {
		return nil
	}
	hints := make(map[string]string)
	for table, cols := range c.Tables {
		for col, typ := range cols {
			hints[strings.ToLower(table)+"."+strings.ToLower(col)] = typ
		}
	}
	return hints
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	return filepath.Join(base, "sqlsage"), nil
}

func ensureConfigDir() error {
	dir, err := configDirFunc()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
