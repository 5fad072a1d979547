package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLedger stores effect results in redis so deduplication survives
// process restarts between a delay being scheduled and fired.
type RedisLedger struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

const defaultTTL = 30 * 24 * time.Hour

func NewRedisLedger(client redis.UniversalClient, keyPrefix string) *RedisLedger {
	if keyPrefix == "" {
		keyPrefix = "seedflow:effects:"
	}

	return &RedisLedger{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       defaultTTL,
	}
}

func (l *RedisLedger) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (map[string]any, bool, error) {
	redisKey := l.keyPrefix + key

	cached, err := l.client.Get(ctx, redisKey).Result()
	if err == nil {
		result, decodeErr := decodeResult(cached)
		if decodeErr != nil {
			return nil, false, decodeErr
		}

		return result, true, nil
	}

	if err != redis.Nil {
		return nil, false, fmt.Errorf("failed to read idempotency key %s: %w", key, err)
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode result for key %s: %w", key, err)
	}

	stored, err := l.client.SetNX(ctx, redisKey, string(payload), l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to store idempotency key %s: %w", key, err)
	}

	if !stored {
		// Another worker won the race; its result is the canonical one.
		winner, err := l.client.Get(ctx, redisKey).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to read winning result for key %s: %w", key, err)
		}

		result, decodeErr := decodeResult(winner)
		if decodeErr != nil {
			return nil, false, decodeErr
		}

		return result, true, nil
	}

	return result, false, nil
}

func decodeResult(payload string) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}

	return result, nil
}
