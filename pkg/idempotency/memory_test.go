package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "exec-1:send", Key("exec-1", "send"))
}

func TestMemoryLedger_ComputesOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	var calls atomic.Int32

	compute := func(context.Context) (map[string]any, error) {
		calls.Add(1)

		return map[string]any{"message_id": "msg-1"}, nil
	}

	result, cached, err := ledger.GetOrCompute(ctx, "exec-1:send", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "msg-1", result["message_id"])

	result, cached, err = ledger.GetOrCompute(ctx, "exec-1:send", compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "msg-1", result["message_id"])

	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryLedger_DistinctKeysComputeIndependently(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	var calls atomic.Int32

	compute := func(context.Context) (map[string]any, error) {
		calls.Add(1)

		return map[string]any{}, nil
	}

	_, _, err := ledger.GetOrCompute(ctx, "exec-1:send", compute)
	require.NoError(t, err)

	_, _, err = ledger.GetOrCompute(ctx, "exec-2:send", compute)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryLedger_FailedComputeIsRetryable(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	var calls atomic.Int32

	failing := func(context.Context) (map[string]any, error) {
		calls.Add(1)

		return nil, errors.New("provider unavailable")
	}

	_, _, err := ledger.GetOrCompute(ctx, "exec-1:send", failing)
	require.Error(t, err)

	// The failure was not recorded as a result; the next attempt computes
	// again and its success is cached.
	result, cached, err := ledger.GetOrCompute(ctx, "exec-1:send", func(context.Context) (map[string]any, error) {
		calls.Add(1)

		return map[string]any{"status": "sent"}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "sent", result["status"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryLedger_ConcurrentCallersComputeOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	var calls atomic.Int32

	const callers = 16

	var wg sync.WaitGroup

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result, _, err := ledger.GetOrCompute(ctx, "exec-1:send", func(context.Context) (map[string]any, error) {
				calls.Add(1)

				return map[string]any{"message_id": "msg-1"}, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "msg-1", result["message_id"])
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}
