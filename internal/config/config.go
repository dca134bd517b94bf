// Package config loads app settings from the TOML config file, the
// environment, and defaults, in that order of increasing priority for
// env overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds resolved settings for a run.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// CatalogPath is the catalog JSON file.
	CatalogPath string

	// LearnerID identifies whose progress to load. Empty means a
	// default single-learner id.
	LearnerID string
}

// FileConfig is the TOML file shape.
type FileConfig struct {
	Learner LearnerConfig `toml:"learner"`
	Paths   PathsConfig   `toml:"paths"`
}

// LearnerConfig maps learner settings.
type LearnerConfig struct {
	ID *string `toml:"id"`
}

// PathsConfig maps file locations.
type PathsConfig struct {
	DB      *string `toml:"db"`
	Catalog *string `toml:"catalog"`
}

// DefaultLearnerID is used when no learner is configured; the app is
// single-learner by default.
const DefaultLearnerID = "local"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "trailz", "config.toml")
}

// DefaultCatalogPath returns the default catalog file location.
func DefaultCatalogPath() string {
	return filepath.Join(XDGConfigHome(), "trailz", "catalog.json")
}

// LoadFile reads a TOML config from the given path. A missing file is
// not an error.
func LoadFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Resolve merges file config, environment variables, and defaults.
// Env vars (TRAILZ_CATALOG, TRAILZ_LEARNER) win over the file; the
// database path is resolved separately because the --db flag sits
// above both.
func Resolve(file FileConfig) Config {
	cfg := Config{LearnerID: DefaultLearnerID, CatalogPath: DefaultCatalogPath()}

	if file.Learner.ID != nil && *file.Learner.ID != "" {
		cfg.LearnerID = *file.Learner.ID
	}
	if file.Paths.Catalog != nil && *file.Paths.Catalog != "" {
		cfg.CatalogPath = *file.Paths.Catalog
	}
	if file.Paths.DB != nil && *file.Paths.DB != "" {
		cfg.DBPath = *file.Paths.DB
	}

	if v := os.Getenv("TRAILZ_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("TRAILZ_LEARNER"); v != "" {
		cfg.LearnerID = v
	}

	return cfg
}
