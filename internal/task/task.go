// Package task implements the background-task framework every
// per-concern monitor (DNS, MTU, route, hop, problem analysis, ...)
// runs under: a uniform setup/execute/interval lifecycle driven by an
// Orchestrator, plus a small bounded worker pool type (Pool). The
// daemon's tasks do not route their blocking calls through a Pool;
// subprocess concurrency is capped by internal/procreg instead.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is one periodically-executed background concern.
type Task interface {
	// Name identifies the task in logs and error wrapping.
	Name() string
	// Interval is how often Execute runs.
	Interval() time.Duration
	// Enabled reports whether the task should be scheduled at all.
	Enabled() bool
	// Setup runs once before the first Execute call.
	Setup(ctx context.Context) error
	// Execute runs one iteration of the task's work.
	Execute(ctx context.Context) error
}

// Orchestrator runs a set of registered Tasks, each on its own ticker.
// A task whose Setup fails is not scheduled and its error is sent to
// the shared channel returned by Errors; errors from Execute are only
// logged and the task keeps running.
type Orchestrator struct {
	logger *slog.Logger
	errCh  chan error

	mu    sync.Mutex
	tasks []Task
	wg    sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator. errBuffer sizes the shared
// error channel; it should be at least the number of tasks that will
// be registered so a failing task never blocks trying to report it.
func NewOrchestrator(logger *slog.Logger, errBuffer int) *Orchestrator {
	return &Orchestrator{
		logger: logger,
		errCh:  make(chan error, errBuffer),
	}
}

// Register adds a task. Disabled tasks are recorded but never scheduled.
func (o *Orchestrator) Register(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasks = append(o.tasks, t)
}

// Errors returns the channel tasks report fatal errors on.
func (o *Orchestrator) Errors() <-chan error {
	return o.errCh
}

// Run starts every enabled, registered task in its own goroutine and
// blocks until ctx is cancelled. Each task's loop exits promptly on
// cancellation; Run itself returns once all task goroutines have
// exited.
func (o *Orchestrator) Run(ctx context.Context) {
	o.mu.Lock()
	tasks := append([]Task(nil), o.tasks...)
	o.mu.Unlock()

	for _, t := range tasks {
		if !t.Enabled() {
			o.logger.Debug("task disabled, skipping", "task", t.Name())
			continue
		}
		o.wg.Add(1)
		go o.runTask(ctx, t)
	}

	<-ctx.Done()
	o.wg.Wait()
}

func (o *Orchestrator) runTask(ctx context.Context, t Task) {
	defer o.wg.Done()

	if err := t.Setup(ctx); err != nil {
		select {
		case o.errCh <- fmt.Errorf("task %s: setup: %w", t.Name(), err):
		default:
			o.logger.Error("task setup failed and error channel full", "task", t.Name(), "error", err)
		}
		return
	}

	ticker := time.NewTicker(t.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Execute(ctx); err != nil {
				o.logger.Warn("task execution error", "task", t.Name(), "error", err)
			}
		}
	}
}

// Pool is a small bounded worker pool that caps how many Do calls run
// at once, independent of the number of tasks registered.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a Pool that allows at most size concurrent Do calls
// to be in flight at once.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Do runs fn, blocking until a pool slot is free or ctx is cancelled.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn()
}
