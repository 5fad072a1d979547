package delayqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	defaultPollInterval = 1 * time.Second
	defaultZSetKey      = "seedflow:delays"
)

// RedisQueue persists scheduled jobs in a redis sorted set scored by fire
// time and polls for due entries. Jobs survive process restarts. A due entry
// is claimed by removing it before the handler runs and re-added when the
// handler fails, so delivery is at least once and concurrent pollers do not
// deliver the same job twice.
type RedisQueue struct {
	client       redis.UniversalClient
	logger       *slog.Logger
	zsetKey      string
	pollInterval time.Duration

	mu      sync.Mutex
	handler Handler
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

func NewRedisQueue(client redis.UniversalClient, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{
		client:       client,
		logger:       logger.With("module", "redis_delay_queue"),
		zsetKey:      defaultZSetKey,
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
	}
}

func (q *RedisQueue) OnFire(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handler = handler
}

func (q *RedisQueue) Schedule(ctx context.Context, job Job, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}

	job.FireAt = time.Now().UTC().Add(delay)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode delay job %s: %w", job.ID, err)
	}

	err = q.client.ZAdd(ctx, q.zsetKey, redis.Z{
		Score:  float64(job.FireAt.UnixMilli()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule delay job %s: %w", job.ID, err)
	}

	q.logger.InfoContext(ctx, "Scheduled delay job", "job_id", job.ID, "execution_id", job.ExecutionID, "fire_at", job.FireAt)

	return nil
}

func (q *RedisQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.handler == nil {
		return errors.New("no resume handler registered")
	}

	if q.started {
		return nil
	}

	q.started = true
	q.wg.Add(1)

	go q.poll(ctx)

	return nil
}

func (q *RedisQueue) poll(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.fireDue(ctx); err != nil {
				q.logger.ErrorContext(ctx, "Failed to process due delay jobs", "error", err)
			}
		}
	}
}

func (q *RedisQueue) fireDue(ctx context.Context) error {
	now := time.Now().UTC().UnixMilli()

	members, err := q.client.ZRangeByScore(ctx, q.zsetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to query due jobs: %w", err)
	}

	q.mu.Lock()
	handler := q.handler
	q.mu.Unlock()

	for _, member := range members {
		// ZREM is the claim: of the pollers that saw this entry, only the
		// one that removes it runs the handler. A failed handler re-adds the
		// entry, so delivery stays at least once.
		removed, err := q.client.ZRem(ctx, q.zsetKey, member).Result()
		if err != nil {
			return fmt.Errorf("failed to claim due job: %w", err)
		}

		if removed == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			q.logger.ErrorContext(ctx, "Dropping undecodable delay job", "error", err)

			continue
		}

		if err := handler(ctx, job); err != nil {
			q.logger.ErrorContext(ctx, "Resume handler failed, rescheduling",
				"job_id", job.ID, "execution_id", job.ExecutionID, "error", err)

			if err := q.client.ZAdd(ctx, q.zsetKey, redis.Z{
				Score:  float64(job.FireAt.UnixMilli()),
				Member: member,
			}).Err(); err != nil {
				return fmt.Errorf("failed to reschedule job %s: %w", job.ID, err)
			}
		}
	}

	return nil
}

func (q *RedisQueue) Close() error {
	q.mu.Lock()
	if q.started {
		close(q.stopCh)
		q.started = false
	}
	q.mu.Unlock()

	q.wg.Wait()

	return nil
}
