package cluster

import (
	"fmt"
	"sync"
	"time"

	"sshfleet/internal/logging"
	"sshfleet/internal/ssh"

	"github.com/rs/zerolog"
)

// Pool keeps one reusable Connection per hostname. The pool mutex guards
// only map bookkeeping and lease counts; connecting and executing happen on
// the Connection outside the critical section, so one host's latency never
// serializes another's.
type Pool struct {
	registry       *Registry
	dialer         ssh.Dialer
	connectTimeout time.Duration
	logger         zerolog.Logger

	mu     sync.Mutex
	conns  map[string]*Connection
	closed bool
}

// NewPool creates a Pool backed by the given registry and dialer.
func NewPool(registry *Registry, dialer ssh.Dialer, connectTimeout time.Duration) *Pool {
	return &Pool{
		registry:       registry,
		dialer:         dialer,
		connectTimeout: connectTimeout,
		logger:         logging.Component("pool"),
		conns:          make(map[string]*Connection),
	}
}

// Acquire returns a leased connection for hostname, creating the entry on
// first use. The caller must Release it when the execution finishes. A
// leased connection is pinned: the reaper will not evict it.
func (p *Pool) Acquire(hostname string) (*Connection, error) {
	server, ok := p.registry.Get(hostname)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, hostname)
	}
	if !server.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrServerDisabled, hostname)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	conn := p.conns[hostname]
	if conn != nil && conn.leases == 0 && conn.server != server {
		// The registry record changed since this connection was cached.
		// Drop it so the next dial uses the fresh credentials.
		delete(p.conns, hostname)
		go conn.Close()
		conn = nil
	}
	if conn == nil {
		conn = newConnection(server, p.dialer, p.connectTimeout)
		p.conns[hostname] = conn
	}
	conn.leases++
	return conn, nil
}

// Release returns a leased connection to the pool.
func (p *Pool) Release(conn *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn.leases > 0 {
		conn.leases--
	}
}

// Drop disconnects and removes the pooled connection for hostname, if any.
func (p *Pool) Drop(hostname string) {
	p.mu.Lock()
	conn := p.conns[hostname]
	delete(p.conns, hostname)
	p.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Active returns the number of pooled connections.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Reap evicts pooled connections that have been idle longer than
// idleTimeout or whose transport no longer responds. Leased connections are
// skipped: a command may be in flight on them. It returns the number of
// evicted connections.
func (p *Pool) Reap(idleTimeout time.Duration) int {
	now := time.Now()

	type entry struct {
		hostname string
		conn     *Connection
	}

	p.mu.Lock()
	var idle, probe []entry
	for hostname, conn := range p.conns {
		if conn.leases > 0 {
			continue
		}
		if idleTimeout > 0 && now.Sub(conn.LastUsed()) > idleTimeout {
			idle = append(idle, entry{hostname, conn})
			delete(p.conns, hostname)
			continue
		}
		probe = append(probe, entry{hostname, conn})
	}
	p.mu.Unlock()

	evicted := 0
	for _, e := range idle {
		_ = e.conn.Close()
		evicted++
		p.logger.Info().Str("hostname", e.hostname).Msg("evicted idle connection")
	}

	// Liveness probes do network I/O, so they run outside the pool lock.
	// An entry may get leased meanwhile; re-check before removing it.
	for _, e := range probe {
		if e.conn.Alive() {
			continue
		}
		p.mu.Lock()
		current := p.conns[e.hostname]
		if current == e.conn && e.conn.leases == 0 {
			delete(p.conns, e.hostname)
		} else {
			current = nil
		}
		p.mu.Unlock()

		if current != nil {
			_ = e.conn.Close()
			evicted++
			p.logger.Info().Str("hostname", e.hostname).Msg("evicted dead connection")
		}
	}

	return evicted
}

// CloseAll disconnects every pooled connection and rejects further use.
// Calling it twice is a no-op.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	conns := make([]*Connection, 0, len(p.conns))
	for _, conn := range p.conns {
		conns = append(conns, conn)
	}
	p.conns = make(map[string]*Connection)
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	p.logger.Info().Int("connections", len(conns)).Msg("all connections closed")
}
