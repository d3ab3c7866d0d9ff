// Package pool wraps panjf2000/ants with named pools, task statistics, and
// panic accounting. Watcher callbacks and audit hooks run on these pools so
// a slow consumer never blocks the policy path.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrPoolOverload is returned when a nonblocking pool is full.
	ErrPoolOverload = errors.New("worker pool is overloaded")
)

// Config defines the configuration for a worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent goroutines.
	Capacity int
	// ExpiryDuration is how long idle workers live before reclaim.
	ExpiryDuration time.Duration
	// PreAlloc preallocates worker memory.
	PreAlloc bool
	// Nonblocking makes Submit fail instead of wait when the pool is full.
	Nonblocking bool
	// MaxBlockingTasks caps waiting submitters when Nonblocking is false
	// (0 means unlimited).
	MaxBlockingTasks int
	// PanicHandler is called with the recovered value of a worker panic.
	PanicHandler func(interface{})
}

// DefaultConfig returns the general-purpose pool configuration.
func DefaultConfig() *Config {
	return &Config{
		Capacity:       1000,
		ExpiryDuration: 10 * time.Second,
	}
}

// CallbackConfig returns the configuration for watcher callback pools.
// Callbacks must not block the subscription loop, so the pool is
// nonblocking with a bounded queue.
func CallbackConfig() *Config {
	return &Config{
		Capacity:         200,
		ExpiryDuration:   5 * time.Second,
		Nonblocking:      true,
		MaxBlockingTasks: 100,
	}
}

// Pool is a named worker pool.
type Pool struct {
	name     string
	pool     *ants.Pool
	config   *Config
	stats    *statsCounter
	closed   atomic.Bool
	closedMu sync.Mutex
}

type statsCounter struct {
	SubmittedTasks atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	RejectedTasks  atomic.Int64
	PanicRecovered atomic.Int64
}

// Stats is an atomic snapshot of pool counters.
type Stats struct {
	SubmittedTasks int64
	CompletedTasks int64
	FailedTasks    int64
	RejectedTasks  int64
	PanicRecovered int64
}

// NewPool creates a worker pool with the given configuration.
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pool{
		name:   name,
		config: config,
		stats:  &statsCounter{},
	}

	pool, err := ants.NewPool(config.Capacity, buildAntsOptions(name, config)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = pool

	logger.Infow("Worker pool created",
		"name", name,
		"capacity", config.Capacity,
		"nonblocking", config.Nonblocking,
	)

	return p, nil
}

func buildAntsOptions(name string, config *Config) []ants.Option {
	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithPreAlloc(config.PreAlloc),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
	}

	if config.PanicHandler != nil {
		opts = append(opts, ants.WithPanicHandler(config.PanicHandler))
	} else {
		opts = append(opts, ants.WithPanicHandler(func(r interface{}) {
			logger.Errorw("Worker panic recovered",
				"pool", name,
				"panic", r,
			)
		}))
	}

	return opts
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Running returns the number of running workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Free returns the number of available workers.
func (p *Pool) Free() int {
	return p.pool.Free()
}

// Submit schedules a task on the pool.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		p.stats.SubmittedTasks.Add(1)

		defer func() {
			if r := recover(); r != nil {
				p.stats.PanicRecovered.Add(1)
				p.stats.FailedTasks.Add(1)
				// Re-panic to let the ants PanicHandler handle it
				panic(r)
			}
			p.stats.CompletedTasks.Add(1)
		}()

		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.RejectedTasks.Add(1)
			return ErrPoolOverload
		}
		p.stats.FailedTasks.Add(1)
		return err
	}

	return nil
}

// SubmitWithContext schedules a task unless ctx is already done. The task
// checks ctx again when it starts, so cancelled tasks become no-ops.
func (p *Pool) SubmitWithContext(ctx context.Context, task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.Submit(func() {
		select {
		case <-ctx.Done():
			return
		default:
			task()
		}
	})
}

// Release closes the pool and frees its workers.
func (p *Pool) Release() {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return
	}

	p.closed.Store(true)
	p.pool.Release()
	logger.Infow("Worker pool released", "name", p.name)
}

// ReleaseTimeout closes the pool, waiting up to timeout for running tasks.
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return nil
	}

	p.closed.Store(true)
	return p.pool.ReleaseTimeout(timeout)
}

// Tune changes the pool capacity at runtime.
func (p *Pool) Tune(size int) {
	p.pool.Tune(size)
	p.config.Capacity = size
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		SubmittedTasks: p.stats.SubmittedTasks.Load(),
		CompletedTasks: p.stats.CompletedTasks.Load(),
		FailedTasks:    p.stats.FailedTasks.Load(),
		RejectedTasks:  p.stats.RejectedTasks.Load(),
		PanicRecovered: p.stats.PanicRecovered.Load(),
	}
}
