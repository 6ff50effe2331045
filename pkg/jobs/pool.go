// Package jobs runs queued background work, such as roster export rendering,
// on a fixed set of worker goroutines.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of queued work carrying a typed payload.
type Task[P any] struct {
	ID      string
	Kind    string
	Payload P
	Attempt int
}

// RunFunc executes a task. A non-nil error makes the worker retry the task
// until the pool's attempt budget is spent.
type RunFunc[P any] func(ctx context.Context, task Task[P]) error

// Options tune a pool. Zero values fall back to defaults sized for
// request-triggered work.
type Options struct {
	Workers  int
	Backlog  int
	Attempts int
	Backoff  time.Duration
	Logger   *zap.Logger
}

// Pool dispatches tasks to its workers. A failed task is retried in place by
// the worker that picked it up, with a pause between tries, so retries never
// jump the backlog queue.
type Pool[P any] struct {
	name     string
	run      RunFunc[P]
	workers  int
	attempts int
	backoff  time.Duration
	logger   *zap.Logger

	tasks  chan Task[P]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewPool builds a pool around the given run function. Call Start before
// submitting tasks.
func NewPool[P any](name string, run RunFunc[P], opts Options) *Pool[P] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backlog <= 0 {
		opts.Backlog = opts.Workers * 8
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool[P]{
		name:     name,
		run:      run,
		workers:  opts.Workers,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		logger:   opts.Logger,
		tasks:    make(chan Task[P], opts.Backlog),
	}
}

// Start launches the workers. A second call is a no-op.
func (p *Pool[P]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.running = true
	p.logger.Info("worker pool started", zap.String("pool", p.name), zap.Int("workers", p.workers))
}

// Shutdown stops accepting work, interrupts waiting workers and blocks until
// they exit.
func (p *Pool[P]) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Info("worker pool stopped", zap.String("pool", p.name))
}

// Submit queues a task. It fails fast, rather than blocking the caller, when
// the pool is not running or the backlog is full.
func (p *Pool[P]) Submit(task Task[P]) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return fmt.Errorf("pool %s is not running", p.name)
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return fmt.Errorf("pool %s backlog is full", p.name)
	}
}

func (p *Pool[P]) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.execute(task)
		}
	}
}

func (p *Pool[P]) execute(task Task[P]) {
	for {
		task.Attempt++
		err := p.run(p.ctx, task)
		if err == nil {
			return
		}
		if task.Attempt >= p.attempts {
			p.logger.Warn("task abandoned",
				zap.String("pool", p.name),
				zap.String("task_id", task.ID),
				zap.String("kind", task.Kind),
				zap.Int("attempts", task.Attempt),
				zap.Error(err))
			return
		}
		p.logger.Debug("task failed, will retry",
			zap.String("pool", p.name),
			zap.String("task_id", task.ID),
			zap.Int("attempt", task.Attempt),
			zap.Error(err))
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.backoff):
		}
	}
}
