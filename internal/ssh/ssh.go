// Package ssh provides the transport abstraction for executing commands on
// remote hosts. The wire protocol itself is delegated to golang.org/x/crypto.
package ssh

import (
	"context"
	"time"
)

// ConnectionOptions configures how an SSH connection is established.
type ConnectionOptions struct {
	// Host is the target host name or IP.
	Host string

	// Port is the SSH port (defaults to 22 when unset).
	Port int

	// User is the SSH username.
	User string

	// Password authenticates the session when set.
	Password string

	// KeyPath is an optional path to the private key ("~/..." is expanded).
	KeyPath string

	// KeyPassphrase decrypts an encrypted private key.
	KeyPassphrase string

	// Timeout controls how long to wait when establishing connections.
	Timeout time.Duration
}

// ExecResult carries the raw output of one remote command.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Transport is one authenticated session bound to a single host. A Transport
// is not safe for concurrent command execution; callers serialize access.
type Transport interface {
	// Exec runs a command and returns its output and remote exit status.
	// A non-zero remote exit status is not an error; Exec returns an error
	// only for transport-level failures.
	Exec(ctx context.Context, cmd string) (ExecResult, error)

	// Alive reports whether the underlying transport still responds. It is
	// a cheap protocol-level probe, not a full command round trip.
	Alive() bool

	// Close tears down the transport. Closing twice is a no-op.
	Close() error
}

// Dialer opens authenticated transports.
type Dialer interface {
	Dial(ctx context.Context, opts ConnectionOptions) (Transport, error)
}
