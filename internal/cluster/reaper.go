package cluster

import (
	"context"
	"errors"
	"sync"
	"time"

	"sshfleet/internal/logging"

	"github.com/rs/zerolog"
)

// Reaper errors.
var (
	ErrReaperAlreadyRunning = errors.New("reaper already running")
	ErrReaperNotRunning     = errors.New("reaper not running")
)

// Reaper periodically evicts idle or dead pooled connections. It shares the
// pool's synchronization: eviction goes through Pool.Reap, which skips
// leased connections, so a command in flight can never lose its transport.
type Reaper struct {
	pool        *Pool
	interval    time.Duration
	idleTimeout time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReaper creates a Reaper for the given pool.
func NewReaper(pool *Pool, interval, idleTimeout time.Duration) *Reaper {
	return &Reaper{
		pool:        pool,
		interval:    interval,
		idleTimeout: idleTimeout,
		logger:      logging.Component("reaper"),
	}
}

// Start begins the reap loop.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrReaperAlreadyRunning
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	r.logger.Info().
		Dur("interval", r.interval).
		Dur("idle_timeout", r.idleTimeout).
		Msg("reaper starting")

	r.wg.Add(1)
	go r.runLoop()

	return nil
}

// Stop halts the reap loop and waits for it to exit.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrReaperNotRunning
	}

	r.cancel()
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info().Msg("reaper stopped")
	return nil
}

// IsRunning returns true if the reap loop is active.
func (r *Reaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reaper) runLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.pool.Reap(r.idleTimeout); evicted > 0 {
				r.logger.Debug().Int("evicted", evicted).Msg("reap cycle complete")
			}
		}
	}
}
