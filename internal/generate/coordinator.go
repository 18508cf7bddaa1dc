// Package generate bounds slow generation jobs with a timeout and falls back
// to running them synchronously, so callers get a result instead of an
// upstream failure.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolreview/internal/workpool"
)

// DefaultTimeout is how long a caller waits for the asynchronous job.
const DefaultTimeout = 60 * time.Second

var (
	// ErrTimeout is the cause logged when the asynchronous job is too slow.
	ErrTimeout = errors.New("generation timed out")
	// ErrStale is returned to a job whose result was superseded by the
	// fallback and therefore discarded.
	ErrStale = errors.New("stale generation result discarded")
)

// Func produces a result. ctx is canceled once nobody waits for it anymore.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// PersistFunc stores a result and returns the stored form.
type PersistFunc[In, Out any] func(ctx context.Context, in In, out Out) (Out, error)

// Submitter dispatches a task, possibly on the calling goroutine.
type Submitter interface {
	Submit(task func()) workpool.Placement
}

// Options configures a Coordinator.
type Options[In, Out any] struct {
	Async   Func[In, Out]
	Sync    Func[In, Out] // defaults to Async
	Persist PersistFunc[In, Out]
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *slog.Logger
}

// Coordinator runs Async on a pool, waits up to Timeout and otherwise runs
// Sync on the caller. Exactly one result is persisted per Run.
type Coordinator[In, Out any] struct {
	pool    Submitter
	fence   *Fence
	async   Func[In, Out]
	sync    Func[In, Out]
	persist PersistFunc[In, Out]
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Coordinator on top of pool.
func New[In, Out any](pool Submitter, opts Options[In, Out]) *Coordinator[In, Out] {
	c := &Coordinator[In, Out]{
		pool:    pool,
		fence:   NewFence(),
		async:   opts.Async,
		sync:    opts.Sync,
		persist: opts.Persist,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if c.sync == nil {
		c.sync = c.async
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type outcome[Out any] struct {
	val Out
	err error
}

// Run returns the persisted result. Timeouts and failures of the
// asynchronous job are never returned; only a failing synchronous fallback
// or a canceled ctx is.
func (c *Coordinator[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	var zero Out
	id := uuid.NewString()
	log := c.logger.With("request_id", id)
	epoch := c.fence.Begin(id)
	defer c.fence.Forget(id)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	done := make(chan outcome[Out], 1)
	placement := c.pool.Submit(func() {
		done <- c.runAsync(jobCtx, context.WithoutCancel(ctx), id, epoch, in)
	})
	log.Debug("generation dispatched", "placement", placement)

	var cause error
	select {
	case out := <-done:
		if out.err == nil {
			log.Debug("generation completed")
			return out.val, nil
		}
		cause = out.err
	case <-timer.C:
		cause = ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	cancel()
	next, committed := c.fence.Supersede(id)
	if committed {
		// The job finished persisting while we were giving up on it.
		out := <-done
		return out.val, out.err
	}

	log.Warn("generation fell back to synchronous path", "cause", cause, "timeout", c.timeout)
	val, err := c.sync(ctx, in)
	if err != nil {
		return zero, fmt.Errorf("synchronous generation failed: %w", err)
	}
	saved, err := c.commit(ctx, id, next, in, val)
	if err != nil {
		return zero, err
	}
	log.Info("generation fallback completed")
	return saved, nil
}

func (c *Coordinator[In, Out]) runAsync(jobCtx, persistCtx context.Context, id string, epoch uint64, in In) (out outcome[Out]) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome[Out]{err: fmt.Errorf("generation panicked: %v", r)}
		}
	}()
	val, err := c.async(jobCtx, in)
	if err != nil {
		return outcome[Out]{err: err}
	}
	saved, err := c.commit(persistCtx, id, epoch, in, val)
	if errors.Is(err, ErrStale) {
		c.logger.Info("discarding late generation result", "request_id", id)
	}
	return outcome[Out]{val: saved, err: err}
}

func (c *Coordinator[In, Out]) commit(ctx context.Context, id string, epoch uint64, in In, val Out) (Out, error) {
	saved := val
	ok, err := c.fence.Commit(id, epoch, func() error {
		var err error
		saved, err = c.persist(ctx, in, val)
		return err
	})
	if err != nil {
		var zero Out
		return zero, fmt.Errorf("failed to persist generation result: %w", err)
	}
	if !ok {
		var zero Out
		return zero, ErrStale
	}
	return saved, nil
}
