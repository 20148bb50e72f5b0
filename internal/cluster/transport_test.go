package cluster

import (
	"context"
	"sync"

	"sshfleet/internal/ssh"
)

// fakeTransport is an in-memory ssh.Transport for tests.
type fakeTransport struct {
	mu    sync.Mutex
	alive bool
	exec  func(cmd string) (ssh.ExecResult, error)
}

func (t *fakeTransport) Exec(ctx context.Context, cmd string) (ssh.ExecResult, error) {
	t.mu.Lock()
	exec := t.exec
	t.mu.Unlock()

	if exec == nil {
		if err := ctx.Err(); err != nil {
			return ssh.ExecResult{ExitCode: -1}, &ssh.NetworkError{Err: err}
		}
		return ssh.ExecResult{Stdout: []byte("1\n")}, nil
	}

	type outcome struct {
		res ssh.ExecResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := exec(cmd)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return ssh.ExecResult{ExitCode: -1}, &ssh.NetworkError{Err: ctx.Err()}
	case o := <-done:
		return o.res, o.err
	}
}

func (t *fakeTransport) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alive
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alive = false
	return nil
}

func (t *fakeTransport) setExec(fn func(cmd string) (ssh.ExecResult, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exec = fn
}

func (t *fakeTransport) kill() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alive = false
}

// fakeDialer counts handshakes per host and can fail specific hosts.
type fakeDialer struct {
	mu         sync.Mutex
	handshakes map[string]int
	fail       map[string]error
	exec       func(host, cmd string) (ssh.ExecResult, error)
	transports map[string]*fakeTransport
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		handshakes: make(map[string]int),
		fail:       make(map[string]error),
		transports: make(map[string]*fakeTransport),
	}
}

func (d *fakeDialer) Dial(ctx context.Context, opts ssh.ConnectionOptions) (ssh.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handshakes[opts.Host]++
	if err := d.fail[opts.Host]; err != nil {
		return nil, err
	}

	transport := &fakeTransport{alive: true}
	if d.exec != nil {
		host := opts.Host
		transport.exec = func(cmd string) (ssh.ExecResult, error) {
			return d.exec(host, cmd)
		}
	}
	d.transports[opts.Host] = transport
	return transport, nil
}

func (d *fakeDialer) count(host string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handshakes[host]
}

func (d *fakeDialer) transport(host string) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[host]
}

func (d *fakeDialer) failWith(host string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[host] = err
}
