package ssh

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultConnectTimeout bounds the TCP dial and handshake when the caller
// does not configure one.
const DefaultConnectTimeout = 10 * time.Second

// NativeDialer opens connections with the in-process SSH client from
// golang.org/x/crypto.
type NativeDialer struct{}

// Dial establishes an authenticated transport to the configured host.
func (NativeDialer) Dial(ctx context.Context, opts ConnectionOptions) (Transport, error) {
	if opts.Host == "" {
		return nil, ErrMissingHost
	}

	config, err := clientConfig(opts)
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(port))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, classifyHandshakeError(err)
	}

	return &nativeTransport{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// clientConfig resolves the configured auth method into an ssh.ClientConfig.
func clientConfig(opts ConnectionOptions) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	switch {
	case opts.KeyPath != "":
		signer, err := loadSigner(opts.KeyPath, opts.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	case opts.Password != "":
		auth = append(auth, ssh.Password(opts.Password))
	default:
		return nil, &AuthError{Err: ErrNoAuthMethod}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	return &ssh.ClientConfig{
		User: opts.User,
		Auth: auth,
		// Host keys are not pinned; fleet targets churn and the inventory
		// carries no key material. See DESIGN.md.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}, nil
}

// loadSigner reads the private key at path, decrypting when a passphrase is
// configured. Any failure here is an auth error.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(expandTilde(path))
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}
	if err != nil {
		return nil, classifyKeyError(err)
	}
	return signer, nil
}

func expandTilde(path string) string {
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if len(path) > 1 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// nativeTransport wraps one *ssh.Client.
type nativeTransport struct {
	client    *ssh.Client
	closeOnce sync.Once
	closeErr  error
}

// Exec runs one command in a fresh session, draining stdout and stderr and
// capturing the remote exit status. The context bounds the wait for the
// response only; the remote process is not killed on timeout.
func (t *nativeTransport) Exec(ctx context.Context, cmd string) (ExecResult, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return ExecResult{}, &NetworkError{Err: err}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		// Tearing down the session unblocks Run; wait for it so the output
		// buffers are quiescent before reading.
		session.Close()
		<-done
		return ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1},
			&NetworkError{Err: ctx.Err()}
	case err = <-done:
	}

	result := ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// The remote command ran and exited non-zero. Normal outcome.
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		result.ExitCode = -1
		return result, &NetworkError{Err: err}
	}
	return result, nil
}

// Alive sends a keepalive request over the existing connection.
func (t *nativeTransport) Alive() bool {
	if t.client == nil {
		return false
	}
	_, _, err := t.client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

// Close tears down the underlying client. Safe to call more than once.
func (t *nativeTransport) Close() error {
	t.closeOnce.Do(func() {
		if t.client != nil {
			t.closeErr = t.client.Close()
		}
	})
	return t.closeErr
}
