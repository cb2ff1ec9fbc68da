package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueClosed is returned by Enqueue once Stop has been called.
	ErrQueueClosed = errors.New("queue closed")
	// ErrQueueFull is returned when the buffer cannot accept another payload.
	ErrQueueFull = errors.New("queue full")
)

// Handler processes one payload.
type Handler[T any] func(ctx context.Context, payload T) error

// Config configures worker pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory, buffered worker pool. Stop drains buffered payloads before returning.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     Config

	jobs    chan T
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// New builds a queue dispatching payloads to handler.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan T, cfg.BufferSize),
	}
}

// Start launches the workers. Calls after the first are ignored.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Enqueue buffers payload without blocking.
func (q *Queue[T]) Enqueue(payload T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects new payloads and waits for workers to drain the buffer.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

func (q *Queue[T]) worker(ctx context.Context) {
	defer q.wg.Done()
	for payload := range q.jobs {
		q.process(ctx, payload)
	}
}

func (q *Queue[T]) process(ctx context.Context, payload T) {
	for attempt := 1; ; attempt++ {
		err := q.handler(ctx, payload)
		if err == nil {
			return
		}
		if attempt > q.cfg.MaxRetries {
			q.cfg.Logger.Error("job exceeded retries", zap.String("queue", q.name), zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		q.cfg.Logger.Warn("job failed, retrying", zap.String("queue", q.name), zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(q.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
