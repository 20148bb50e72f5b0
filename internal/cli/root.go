// Package cli implements the sshfleet command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sshfleet/internal/cluster"
	"sshfleet/internal/config"
	"sshfleet/internal/db"
	"sshfleet/internal/logging"
	"sshfleet/internal/ssh"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sshfleet",
		Short:         "Manage servers and run commands across an SSH fleet",
		Long:          "sshfleet keeps a server inventory and executes commands over pooled SSH connections, one host or a whole group at a time.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "Log format (json, console)")
	cmd.PersistentFlags().Bool("json", false, "Machine-readable JSON output")

	cmd.AddCommand(
		newServersCmd(),
		newRunCmd(),
		newStatusCmd(),
		newStatsCmd(),
		newTargetCmd(),
	)

	return cmd
}

// app bundles the pieces every command needs.
type app struct {
	cfg  *config.Config
	db   *db.DB
	repo *db.ServerRepository
}

// loadApp loads configuration, initializes logging and opens the inventory.
func loadApp(cmd *cobra.Command) (*app, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}

	var logOut io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logOut = f
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       logOut,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	database, err := db.Open(db.Options{
		Path:          cfg.DatabasePath(),
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:  cfg,
		db:   database,
		repo: db.NewServerRepository(database),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// newManager builds a cluster manager with every inventory server loaded
// into its registry.
func (a *app) newManager(ctx context.Context) (*cluster.Manager, error) {
	manager := cluster.NewManager(cluster.Config{
		MaxConnections: a.cfg.Cluster.MaxConnections,
		ConnectTimeout: a.cfg.Cluster.ConnectTimeout,
		CommandTimeout: a.cfg.Cluster.CommandTimeout,
		IdleTimeout:    a.cfg.Cluster.IdleTimeout,
		ReapInterval:   a.cfg.Cluster.ReapInterval,
		ProbeTimeout:   a.cfg.Cluster.ProbeTimeout,
	}, ssh.NativeDialer{})

	servers, err := a.repo.List(ctx)
	if err != nil {
		manager.Close()
		return nil, err
	}
	for _, server := range servers {
		if err := manager.AddServer(server); err != nil {
			manager.Close()
			return nil, fmt.Errorf("invalid inventory record %s: %w", server.Hostname, err)
		}
	}
	return manager, nil
}

// splitHosts parses a comma-separated host list flag.
func splitHosts(value string) []string {
	var hosts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			hosts = append(hosts, part)
		}
	}
	return hosts
}
