// Package config handles sshfleet configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for sshfleet.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Cluster settings
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
}

// GlobalConfig contains global sshfleet settings.
type GlobalConfig struct {
	// DataDir is where sshfleet stores its data (default: ~/.local/share/sshfleet).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/sshfleet).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains inventory database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ClusterConfig contains connection pool and execution settings.
type ClusterConfig struct {
	// MaxConnections bounds how many hosts are worked on concurrently.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`

	// ConnectTimeout is the SSH handshake timeout.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// CommandTimeout is the default per-command timeout.
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`

	// IdleTimeout is how long an unused connection survives before eviction.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// ReapInterval is how often the reaper scans the pool.
	ReapInterval time.Duration `yaml:"reap_interval" mapstructure:"reap_interval"`

	// ProbeTimeout is the timeout for liveness probes.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "sshfleet"),
			ConfigDir: filepath.Join(homeDir, ".config", "sshfleet"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/sshfleet.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Cluster: ClusterConfig{
			MaxConnections: 10,
			ConnectTimeout: 10 * time.Second,
			CommandTimeout: 30 * time.Second,
			IdleTimeout:    5 * time.Minute,
			ReapInterval:   60 * time.Second,
			ProbeTimeout:   5 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Cluster.MaxConnections < 1 {
		return fmt.Errorf("cluster.max_connections must be at least 1")
	}

	if c.Cluster.ConnectTimeout < time.Second {
		return fmt.Errorf("cluster.connect_timeout must be at least 1s")
	}

	if c.Cluster.ReapInterval < time.Second {
		return fmt.Errorf("cluster.reap_interval must be at least 1s")
	}

	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "sshfleet.db")
}
