// Package workpool runs tasks on a bounded set of goroutines and runs them on
// the caller when every worker and queue slot is taken.
package workpool

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Config bounds the pool.
type Config struct {
	// Core workers live as long as the pool.
	Core int `koanf:"core" validate:"min=1"`
	// Max is the total number of concurrent workers, core included.
	Max int `koanf:"max" validate:"gtefield=Core"`
	// Queue is the number of tasks that may wait for a worker.
	Queue int `koanf:"queue" validate:"min=0"`
}

// DefaultConfig returns 10 core workers, 25 at most and a queue of 100.
func DefaultConfig() Config {
	return Config{Core: 10, Max: 25, Queue: 100}
}

// Placement tells where a submitted task ended up.
type Placement int

const (
	Queued Placement = iota
	Burst
	CallerRuns
)

func (p Placement) String() string {
	switch p {
	case Queued:
		return "queued"
	case Burst:
		return "burst"
	case CallerRuns:
		return "caller"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// Pool is a bounded worker pool. The zero value is not usable; call New.
type Pool struct {
	tasks  chan func()
	burst  *semaphore.Weighted
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts the core workers.
func New(cfg Config, logger *slog.Logger) *Pool {
	if cfg.Core < 1 {
		cfg.Core = 1
	}
	if cfg.Max < cfg.Core {
		cfg.Max = cfg.Core
	}
	if cfg.Queue < 0 {
		cfg.Queue = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		tasks:  make(chan func(), cfg.Queue),
		burst:  semaphore.NewWeighted(int64(cfg.Max - cfg.Core)),
		logger: logger,
	}
	p.wg.Add(cfg.Core)
	for i := 0; i < cfg.Core; i++ {
		go p.worker()
	}
	logger.Info("worker pool started", "core", cfg.Core, "max", cfg.Max, "queue", cfg.Queue)
	return p
}

// Submit hands task to an idle or queued core worker, else to a burst
// worker, else runs it on the calling goroutine before returning. It never
// rejects a task, including after Close.
func (p *Pool) Submit(task func()) Placement {
	p.mu.RLock()
	if !p.closed {
		select {
		case p.tasks <- task:
			p.mu.RUnlock()
			return Queued
		default:
		}
		if p.burst.TryAcquire(1) {
			p.wg.Add(1)
			p.mu.RUnlock()
			go p.burstWorker(task)
			return Burst
		}
	}
	p.mu.RUnlock()

	p.run(task)
	return CallerRuns
}

// Close stops accepting work for the workers and waits for queued and
// running tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// burstWorker runs its task and then helps drain the queue until it is empty.
func (p *Pool) burstWorker(task func()) {
	defer p.wg.Done()
	defer p.burst.Release(1)
	p.run(task)
	for {
		select {
		case next, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(next)
		default:
			return
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", "panic", r)
		}
	}()
	task()
}
