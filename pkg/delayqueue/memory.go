package delayqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MemoryQueue fires jobs from in-process timers. Suitable for tests and
// single-process deployments; scheduled jobs do not survive a restart.
type MemoryQueue struct {
	logger *slog.Logger

	mu      sync.Mutex
	handler Handler
	timers  map[string]*time.Timer
	closed  bool
}

func NewMemoryQueue(logger *slog.Logger) *MemoryQueue {
	return &MemoryQueue{
		logger: logger.With("module", "memory_delay_queue"),
		timers: make(map[string]*time.Timer),
	}
}

func (q *MemoryQueue) OnFire(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handler = handler
}

func (q *MemoryQueue) Start(_ context.Context) error {
	return nil
}

func (q *MemoryQueue) Schedule(ctx context.Context, job Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("delay queue is closed")
	}

	if q.handler == nil {
		return errors.New("no resume handler registered")
	}

	if delay < 0 {
		delay = 0
	}

	handler := q.handler

	q.timers[job.ID] = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, job.ID)
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return
		}

		if err := handler(context.Background(), job); err != nil {
			q.logger.Error("Resume handler failed", "job_id", job.ID, "execution_id", job.ExecutionID, "error", err)
		}
	})

	q.logger.DebugContext(ctx, "Scheduled delay job", "job_id", job.ID, "execution_id", job.ExecutionID, "delay", delay)

	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}

	return nil
}
