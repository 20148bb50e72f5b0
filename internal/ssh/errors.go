package ssh

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

var (
	// ErrMissingHost indicates no host was provided in connection options.
	ErrMissingHost = errors.New("ssh host is required")

	// ErrNoAuthMethod indicates neither a password nor a key was configured.
	ErrNoAuthMethod = errors.New("no authentication method configured")
)

// AuthError is a terminal credential failure: bad password, missing or
// unreadable key, or a passphrase mismatch. Retrying without operator
// intervention will not succeed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ssh authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NetworkError is a transient transport failure: refused, timed out, reset,
// or dropped. A later attempt may succeed, so callers reconnect on demand.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("ssh network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// classifyHandshakeError distinguishes credential rejections from transport
// failures during the SSH handshake.
func classifyHandshakeError(err error) error {
	if err == nil {
		return nil
	}
	// x/crypto reports credential rejection with this phrasing; there is no
	// typed error for it.
	if strings.Contains(err.Error(), "unable to authenticate") {
		return &AuthError{Err: err}
	}
	return &NetworkError{Err: err}
}

// classifyKeyError wraps private key load failures as auth errors.
func classifyKeyError(err error) error {
	if err == nil {
		return nil
	}
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return &AuthError{Err: fmt.Errorf("private key is encrypted and no passphrase was configured: %w", err)}
	}
	return &AuthError{Err: err}
}
