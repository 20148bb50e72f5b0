package cluster

import (
	"context"
	"sync"
	"time"

	"sshfleet/internal/logging"
	"sshfleet/internal/models"
	"sshfleet/internal/ssh"

	"github.com/rs/zerolog"
)

// State describes a connection's lifecycle position.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

// Connection is one pooled session bound to a single host. It owns its
// transport exclusively: the connection mutex is held for the whole of a
// command execution, so two calls against the same host serialize naturally.
type Connection struct {
	server         models.ServerInfo
	dialer         ssh.Dialer
	connectTimeout time.Duration
	logger         zerolog.Logger

	mu        sync.Mutex
	transport ssh.Transport
	state     State
	lastUsed  time.Time

	// leases counts in-flight executions. Guarded by the owning pool's
	// mutex, not by mu; the reaper must not evict a leased connection.
	leases int
}

func newConnection(server models.ServerInfo, dialer ssh.Dialer, connectTimeout time.Duration) *Connection {
	return &Connection{
		server:         server,
		dialer:         dialer,
		connectTimeout: connectTimeout,
		logger:         logging.WithHost(server.Hostname),
		state:          StateDisconnected,
		lastUsed:       time.Now(),
	}
}

// Execute runs exactly one command, connecting first if needed. It never
// returns an error: transport failures are folded into the result's Error
// field, and a non-zero remote exit status is a normal result.
func (c *Connection) Execute(ctx context.Context, command string, timeout time.Duration) models.CommandResult {
	start := time.Now()
	result := models.CommandResult{
		Hostname: c.server.Hostname,
		Command:  command,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(ctx); err != nil {
		result.ReturnCode = -1
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := c.transport.Exec(execCtx, command)
	c.lastUsed = time.Now()
	result.Stdout = string(res.Stdout)
	result.Stderr = string(res.Stderr)
	result.Duration = time.Since(start)

	if err != nil {
		// The session died under the command. Drop the transport so the
		// next call dials fresh.
		c.logger.Warn().Err(err).Str("command", logging.Redact(command)).Msg("command execution failed")
		c.closeLocked()
		result.ReturnCode = -1
		result.Error = err.Error()
		return result
	}

	result.ReturnCode = res.ExitCode
	c.logger.Debug().
		Int("return_code", result.ReturnCode).
		Dur("duration", result.Duration).
		Str("command", logging.Redact(command)).
		Msg("command executed")
	return result
}

// Alive reports whether the transport still responds. Callers must not hold
// a lease-protected execution on this connection.
func (c *Connection) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport != nil && c.transport.Alive()
}

// LastUsed returns the completion time of the most recent activity.
func (c *Connection) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears down the transport. Closing an already-closed connection is a
// no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

// ensureConnectedLocked reuses a live transport or dials a fresh one. An
// AuthError here is terminal for this attempt; a NetworkError is retried
// transparently on the next call because the dead transport is dropped.
func (c *Connection) ensureConnectedLocked(ctx context.Context) error {
	if c.transport != nil && c.transport.Alive() {
		return nil
	}
	c.closeLocked()

	c.state = StateConnecting
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	transport, err := c.dialer.Dial(dialCtx, ssh.ConnectionOptions{
		Host:          c.server.Hostname,
		Port:          c.server.Port,
		User:          c.server.Username,
		Password:      c.server.Password,
		KeyPath:       c.server.PrivateKeyPath,
		KeyPassphrase: c.server.PrivateKeyPassphrase,
		Timeout:       c.connectTimeout,
	})
	if err != nil {
		c.state = StateFailed
		c.logger.Warn().Err(err).Bool("auth_failure", ssh.IsAuthError(err)).Msg("connect failed")
		return err
	}

	c.transport = transport
	c.state = StateConnected
	c.lastUsed = time.Now()
	c.logger.Info().Msg("connection established")
	return nil
}

func (c *Connection) closeLocked() {
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
		c.logger.Debug().Msg("connection closed")
	}
	if c.state != StateFailed {
		c.state = StateDisconnected
	}
}
