// Package config provides configuration management for alphscan.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/alphscan/internal/fileutil"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Home      string          `yaml:"home" json:"home"`
	Explorer  ExplorerConfig  `yaml:"explorer" json:"explorer"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ExplorerConfig defines the explorer backend used for activity checks.
type ExplorerConfig struct {
	URL            string  `yaml:"url" json:"url"`
	APIKey         string  `yaml:"api_key" json:"api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RateLimit      float64 `yaml:"rate_limit" json:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst" json:"rate_burst"`
	PageSize       int     `yaml:"page_size" json:"page_size"`
}

// DiscoveryConfig defines address discovery settings.
type DiscoveryConfig struct {
	MinGap     int  `yaml:"min_gap" json:"min_gap"`
	Concurrent bool `yaml:"concurrent" json:"concurrent"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Color         string `yaml:"color" json:"color"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Load reads configuration from the specified file.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scanerr.WithDetails(scanerr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, scanerr.Wrap(scanerr.ErrConfigInvalid, "parsing %s: %v", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// ExplorerTimeout returns the explorer HTTP timeout.
func (c *Config) ExplorerTimeout() time.Duration {
	if c.Explorer.TimeoutSeconds <= 0 {
		return DefaultExplorerTimeout
	}
	return time.Duration(c.Explorer.TimeoutSeconds) * time.Second
}

// WalletsDir returns the directory holding encrypted wallet files.
func (c *Config) WalletsDir() string {
	return filepath.Join(ExpandHome(c.Home), "wallets")
}

// StorePath returns the path of the discovered address database.
func (c *Config) StorePath() string {
	return filepath.Join(ExpandHome(c.Home), "addresses.db")
}

// DefaultHome returns the default alphscan home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alphscan"
	}
	return filepath.Join(home, ".alphscan")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
