// Package worker runs deferred notification work after the request that
// triggered it has returned.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
)

var (
	// ErrQueueClosed is returned by Enqueue after Shutdown has started.
	ErrQueueClosed = errors.New("worker queue closed")
	// ErrQueueFull is returned by Enqueue when the buffer has no room. The
	// task is dropped.
	ErrQueueFull = errors.New("worker queue full")
)

// Task is one unit of deferred work. It receives a context bounded by the
// queue's task timeout, detached from the originating request.
type Task func(ctx context.Context)

type job struct {
	name string
	run  Task
}

// Queue is a bounded pool of goroutines draining a task channel. Each task
// runs at most once; failures are the task's own concern.
type Queue struct {
	logger      *zap.Logger
	metrics     *observability.Metrics
	workers     int
	taskTimeout time.Duration

	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewQueue creates a queue; call Start before enqueueing.
func NewQueue(logger *zap.Logger, metrics *observability.Metrics, workers, size int, taskTimeout time.Duration) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Queue{
		logger:      logger,
		metrics:     metrics,
		workers:     workers,
		taskTimeout: taskTimeout,
		jobs:        make(chan job, size),
	}
}

// Start launches the worker goroutines. Calling it twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.loop()
	}
}

// Enqueue schedules task without blocking. When the buffer is full the task
// is dropped and ErrQueueFull is returned.
func (q *Queue) Enqueue(name string, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.metrics.DeferredQueued()
	select {
	case q.jobs <- job{name: name, run: task}:
		return nil
	default:
		q.metrics.DeferredDone()
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for queued tasks to finish or
// for ctx to expire, whichever comes first.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("deferred tasks drained")
		return nil
	case <-ctx.Done():
		q.logger.Warn("shutdown grace expired with deferred tasks pending", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	defer q.metrics.DeferredDone()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("deferred task panicked", zap.String("task", j.name), zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if q.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	j.run(ctx)
	q.logger.Debug("deferred task finished", zap.String("task", j.name), zap.Duration("took", time.Since(start)))
}
