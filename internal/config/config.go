// Package config resolves runtime settings from the environment. The remote
// connection string can come from HABITGRID_REMOTE_DSN for scripted use, but
// the keyring is the preferred home for it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/keyring"
)

// Config contains application configuration parameters.
type Config struct {
	Debug     bool   `env:"DEBUG" envDefault:"false"`
	DataDir   string `env:"DATA_DIR"`
	RemoteDSN string `env:"REMOTE_DSN"`
}

// NewConfig loads configuration from HABITGRID_-prefixed environment
// variables and fills in defaults.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "HABITGRID_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, "."+constants.AppName)
	}

	return &cfg, nil
}

// DatabasePath is the location of the local SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, constants.AppName+".db")
}

// ResolveRemoteDSN returns the remote connection string, preferring the
// environment override and falling back to the OS keyring. Returns an empty
// string when sync is not configured.
func (c *Config) ResolveRemoteDSN() (string, error) {
	if c.RemoteDSN != "" {
		return c.RemoteDSN, nil
	}

	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return connStr, nil
}
