package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity 池容量（最大并发 goroutine 数）
	Capacity int
	// ExpiryDuration goroutine 空闲过期时间
	ExpiryDuration time.Duration
	// Nonblocking 池满时提交直接返回 ErrPoolOverload
	Nonblocking bool
	// PanicHandler 恐慌处理函数，为空时记录日志
	PanicHandler func(interface{})
}

// LaunchConfig sizes a pool so that n launches all start at once.
func LaunchConfig(n int) *Config {
	if n < 1 {
		n = 1
	}
	return &Config{
		Capacity:       n,
		ExpiryDuration: time.Second,
	}
}

// Pool is a named ants pool with task accounting.
type Pool struct {
	name     string
	pool     *ants.Pool
	stats    counters
	closed   atomic.Bool
	closedMu sync.Mutex
}

type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// Stats is a snapshot of pool accounting.
type Stats struct {
	Submitted int64
	Completed int64
	Rejected  int64
	Panics    int64
}

// NewPool creates a pool.
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidPoolConfig)
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidPoolConfig, config.Capacity)
	}

	p := &Pool{name: name}

	panicHandler := config.PanicHandler
	if panicHandler == nil {
		panicHandler = func(r interface{}) {
			logger.Errorw("worker panic recovered", "pool", name, "panic", r)
		}
	}

	ap, err := ants.NewPool(config.Capacity,
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithPanicHandler(func(r interface{}) {
			p.stats.panics.Add(1)
			panicHandler(r)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create ants pool %q: %w", name, err)
	}
	p.pool = ap

	logger.Debugw("worker pool created", "pool", name, "capacity", config.Capacity)
	return p, nil
}

// Name 返回池名称
func (p *Pool) Name() string { return p.name }

// Cap 返回池容量
func (p *Pool) Cap() int { return p.pool.Cap() }

// Submit schedules task. A panicking task is counted and handed to the
// configured PanicHandler.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		task()
		p.stats.completed.Add(1)
	})
	if err != nil {
		switch {
		case errors.Is(err, ants.ErrPoolOverload):
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		case errors.Is(err, ants.ErrPoolClosed):
			return ErrPoolClosed
		}
		return err
	}
	p.stats.submitted.Add(1)
	return nil
}

// Release closes the pool. Running tasks are not interrupted.
func (p *Pool) Release() {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	p.pool.Release()
	logger.Debugw("worker pool released", "pool", p.name)
}

// Stats 返回池统计信息快照
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.stats.submitted.Load(),
		Completed: p.stats.completed.Load(),
		Rejected:  p.stats.rejected.Load(),
		Panics:    p.stats.panics.Load(),
	}
}
