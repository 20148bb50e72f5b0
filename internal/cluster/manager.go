package cluster

import (
	"context"
	"sync"
	"time"

	"sshfleet/internal/logging"
	"sshfleet/internal/models"
	"sshfleet/internal/ssh"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// probeCommand is the trivial round trip used for liveness checks.
const probeCommand = "echo ping"

// Config contains tunables for the cluster Manager.
type Config struct {
	// MaxConnections bounds concurrent executions in a parallel batch.
	// Default: 10
	MaxConnections int

	// ConnectTimeout bounds the TCP dial and SSH handshake.
	// Default: 10s
	ConnectTimeout time.Duration

	// CommandTimeout is the default per-command timeout.
	// Default: 30s
	CommandTimeout time.Duration

	// IdleTimeout is how long a pooled connection may sit unused before the
	// reaper evicts it.
	// Default: 5m
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper scans the pool.
	// Default: 60s
	ReapInterval time.Duration

	// ProbeTimeout bounds a single status probe.
	// Default: 5s
	ProbeTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConnections: 10,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 30 * time.Second,
		IdleTimeout:    5 * time.Minute,
		ReapInterval:   60 * time.Second,
		ProbeTimeout:   5 * time.Second,
	}
}

// Manager is the top-level cluster API: registry mutations, single-host and
// parallel execution, status probing, and statistics. It owns the pool and
// the reaper; nothing here is a process-wide singleton.
type Manager struct {
	config   Config
	registry *Registry
	pool     *Pool
	reaper   *Reaper
	logger   zerolog.Logger

	// sem is the bounded worker pool for parallel batches. Excess host
	// targets queue for a free slot rather than spawning unbounded dials.
	sem chan struct{}
}

// NewManager creates a Manager using the given transport dialer.
func NewManager(config Config, dialer ssh.Dialer) *Manager {
	defaults := DefaultConfig()
	if config.MaxConnections <= 0 {
		config.MaxConnections = defaults.MaxConnections
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = defaults.ReapInterval
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = defaults.ProbeTimeout
	}

	registry := NewRegistry()
	pool := NewPool(registry, dialer, config.ConnectTimeout)

	return &Manager{
		config:   config,
		registry: registry,
		pool:     pool,
		reaper:   NewReaper(pool, config.ReapInterval, config.IdleTimeout),
		logger:   logging.Component("cluster"),
		sem:      make(chan struct{}, config.MaxConnections),
	}
}

// Registry exposes read access to the server registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// AddServer validates and registers a server.
func (m *Manager) AddServer(server models.ServerInfo) error {
	return m.registry.Add(server)
}

// RemoveServer unregisters a server and disconnects its pooled connection.
func (m *Manager) RemoveServer(hostname string) bool {
	removed := m.registry.Remove(hostname)
	m.pool.Drop(hostname)
	return removed
}

// Start launches the background reaper.
func (m *Manager) Start(ctx context.Context) error {
	return m.reaper.Start(ctx)
}

// Close stops the reaper and disconnects every pooled connection. It waits
// for the reaper to finish before returning and is safe to call twice.
func (m *Manager) Close() error {
	if err := m.reaper.Stop(); err != nil && err != ErrReaperNotRunning {
		return err
	}
	m.pool.CloseAll()
	return nil
}

// ExecuteOne runs a command on a single host. It never returns an error:
// when no connection is available the result carries return code -1 and a
// description of why.
func (m *Manager) ExecuteOne(ctx context.Context, hostname, command string, timeout time.Duration) models.CommandResult {
	if timeout <= 0 {
		timeout = m.config.CommandTimeout
	}

	conn, err := m.pool.Acquire(hostname)
	if err != nil {
		return models.CommandResult{
			Hostname:   hostname,
			Command:    command,
			ReturnCode: -1,
			Error:      err.Error(),
		}
	}
	defer m.pool.Release(conn)

	return conn.Execute(ctx, command, timeout)
}

// ExecuteParallel fans a command out to every named host through the
// bounded worker pool and fans the results back into a map keyed by
// hostname. Exactly one result is returned per requested host; one host's
// failure never aborts or delays its siblings.
func (m *Manager) ExecuteParallel(ctx context.Context, hostnames []string, command string, timeout time.Duration) map[string]models.CommandResult {
	batchID := uuid.New().String()
	logger := m.logger.With().Str("batch_id", batchID).Logger()
	logger.Info().
		Int("hosts", len(hostnames)).
		Str("command", logging.Redact(command)).
		Msg("dispatching parallel command")

	type keyed struct {
		hostname string
		result   models.CommandResult
	}

	out := make(chan keyed, len(hostnames))
	var wg sync.WaitGroup
	for _, hostname := range hostnames {
		wg.Add(1)
		go func(hostname string) {
			defer wg.Done()
			m.sem <- struct{}{}
			defer func() { <-m.sem }()
			out <- keyed{hostname, m.ExecuteOne(ctx, hostname, command, timeout)}
		}(hostname)
	}
	wg.Wait()
	close(out)

	results := make(map[string]models.CommandResult, len(hostnames))
	failures := 0
	for k := range out {
		results[k.hostname] = k.result
		if k.result.Error != "" {
			failures++
		}
	}

	logger.Info().
		Int("results", len(results)).
		Int("failures", failures).
		Msg("parallel command complete")
	return results
}

// ExecuteOnGroup resolves a group to its member hosts and delegates to
// ExecuteParallel.
func (m *Manager) ExecuteOnGroup(ctx context.Context, group, command string, timeout time.Duration) map[string]models.CommandResult {
	return m.ExecuteParallel(ctx, m.registry.GroupHosts(group), command, timeout)
}

// CheckStatus probes a single host with a trivial command and converts the
// round trip into a status snapshot.
func (m *Manager) CheckStatus(ctx context.Context, hostname string) models.ServerStatus {
	start := time.Now()
	result := m.ExecuteOne(ctx, hostname, probeCommand, m.config.ProbeTimeout)

	status := models.ServerStatus{
		Hostname:     hostname,
		LastCheck:    time.Now(),
		ResponseTime: time.Since(start),
	}
	switch {
	case result.Error != "":
		status.Error = result.Error
	case result.ReturnCode != 0:
		status.Error = result.Stderr
	default:
		status.Online = true
	}
	return status
}

// CheckAll probes every registered host concurrently, bounded by the same
// worker pool as command execution.
func (m *Manager) CheckAll(ctx context.Context) map[string]models.ServerStatus {
	hostnames := m.registry.Hostnames()

	type keyed struct {
		hostname string
		status   models.ServerStatus
	}

	out := make(chan keyed, len(hostnames))
	var wg sync.WaitGroup
	for _, hostname := range hostnames {
		wg.Add(1)
		go func(hostname string) {
			defer wg.Done()
			m.sem <- struct{}{}
			defer func() { <-m.sem }()
			out <- keyed{hostname, m.CheckStatus(ctx, hostname)}
		}(hostname)
	}
	wg.Wait()
	close(out)

	statuses := make(map[string]models.ServerStatus, len(hostnames))
	for k := range out {
		statuses[k.hostname] = k.status
	}
	return statuses
}

// Statistics reports registry and pool counts.
func (m *Manager) Statistics() models.Statistics {
	total, enabled := m.registry.Counts()
	groups := m.registry.GroupSizes()

	return models.Statistics{
		TotalServers:      total,
		EnabledServers:    enabled,
		ActiveConnections: m.pool.Active(),
		TotalGroups:       len(groups),
		Groups:            groups,
	}
}
