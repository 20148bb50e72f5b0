package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.Equal(t, 10, cfg.Cluster.MaxConnections)
	require.Equal(t, 10*time.Second, cfg.Cluster.ConnectTimeout)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	content := `
logging:
  level: debug
  format: json
cluster:
  max_connections: 4
  idle_timeout: 2m
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, 4, cfg.Cluster.MaxConnections)
	require.Equal(t, 2*time.Minute, cfg.Cluster.IdleTimeout)
	// Untouched sections keep their defaults
	require.Equal(t, 60*time.Second, cfg.Cluster.ReapInterval)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SSHFLEET_LOGGING_LEVEL", "warn")
	t.Setenv("SSHFLEET_CLUSTER_MAX_CONNECTIONS", "3")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, 3, cfg.Cluster.MaxConnections)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero max connections",
			mutate:  func(c *Config) { c.Cluster.MaxConnections = 0 },
			wantErr: "max_connections",
		},
		{
			name:    "tiny connect timeout",
			mutate:  func(c *Config) { c.Cluster.ConnectTimeout = time.Millisecond },
			wantErr: "connect_timeout",
		},
		{
			name:    "tiny reap interval",
			mutate:  func(c *Config) { c.Cluster.ReapInterval = time.Millisecond },
			wantErr: "reap_interval",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/data"

	require.Equal(t, filepath.Join("/data", "sshfleet.db"), cfg.DatabasePath())

	cfg.Database.Path = "/elsewhere/fleet.db"
	require.Equal(t, "/elsewhere/fleet.db", cfg.DatabasePath())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "fleet.db"), expandTilde("~/fleet.db"))
	require.Equal(t, "/abs/path", expandTilde("/abs/path"))
	require.Equal(t, "", expandTilde(""))
}
