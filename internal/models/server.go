// Package models defines the core data types for sshfleet.
package models

import (
	"fmt"
	"time"
)

const (
	// DefaultPort is the SSH port used when none is configured.
	DefaultPort = 22

	// DefaultGroup is the group assigned to servers without an explicit one.
	DefaultGroup = "default"
)

// ServerInfo holds identity and connection metadata for one remote host.
// Exactly one of Password or PrivateKeyPath must be set.
type ServerInfo struct {
	// Hostname uniquely identifies the server.
	Hostname string `json:"hostname"`

	// Username is the SSH login user.
	Username string `json:"username"`

	// Port is the SSH port (defaults to 22 when unset).
	Port int `json:"port"`

	// Password authenticates the session when set.
	Password string `json:"-"`

	// PrivateKeyPath is a path to the private key ("~/..." is expanded).
	PrivateKeyPath string `json:"private_key_path,omitempty"`

	// PrivateKeyPassphrase decrypts an encrypted private key.
	PrivateKeyPassphrase string `json:"-"`

	// Group is the membership label (defaults to "default").
	Group string `json:"group"`

	// Description is free-form operator text.
	Description string `json:"description,omitempty"`

	// Enabled marks whether the server may be targeted.
	Enabled bool `json:"enabled"`
}

// Normalize fills defaulted fields in place.
func (s *ServerInfo) Normalize() {
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Group == "" {
		s.Group = DefaultGroup
	}
}

// Addr returns the dial address in host:port form.
func (s *ServerInfo) Addr() string {
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", s.Hostname, port)
}

// Validate checks the record for use. Auth method errors are reported here,
// at registration time, never deferred to the first connection attempt.
func (s *ServerInfo) Validate() error {
	errs := &ValidationErrors{}

	if s.Hostname == "" {
		errs.AddMessage("hostname", "is required")
	}
	if s.Username == "" {
		errs.AddMessage("username", "is required")
	}
	if s.Port < 0 || s.Port > 65535 {
		errs.AddMessage("port", fmt.Sprintf("must be between 1 and 65535, got %d", s.Port))
	}

	switch {
	case s.Password == "" && s.PrivateKeyPath == "":
		errs.AddMessage("auth", "either password or private_key_path is required")
	case s.Password != "" && s.PrivateKeyPath != "":
		errs.AddMessage("auth", "password and private_key_path are mutually exclusive")
	}

	if s.PrivateKeyPassphrase != "" && s.PrivateKeyPath == "" {
		errs.AddMessage("private_key_passphrase", "requires private_key_path")
	}

	return errs.Err()
}

// CommandResult is the immutable outcome of one (hostname, command)
// execution. A non-zero ReturnCode is not an error at this layer; Error is
// populated only when a connection or transport failure preempted execution.
type CommandResult struct {
	Hostname   string        `json:"hostname"`
	Command    string        `json:"command"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	ReturnCode int           `json:"return_code"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Failed reports whether the execution did not complete cleanly, either
// because of a transport failure or a non-zero remote exit status.
func (r CommandResult) Failed() bool {
	return r.Error != "" || r.ReturnCode != 0
}

// ServerStatus is a point-in-time liveness snapshot for one server.
type ServerStatus struct {
	Hostname     string        `json:"hostname"`
	Online       bool          `json:"online"`
	LastCheck    time.Time     `json:"last_check"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// Statistics summarizes the registry and pool at a moment in time.
type Statistics struct {
	TotalServers      int            `json:"total_servers"`
	EnabledServers    int            `json:"enabled_servers"`
	ActiveConnections int            `json:"active_connections"`
	TotalGroups       int            `json:"total_groups"`
	Groups            map[string]int `json:"groups"`
}
