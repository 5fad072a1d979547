package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/seedflow/seedflow/pkg/delayqueue"
)

// NewDelayQueue builds the delay queue backing delayed continuations. A
// redis:// URL selects the durable Redis queue; anything else falls back to
// the in-process timer queue, which loses pending delays on restart.
func NewDelayQueue(queueURL string, logger *slog.Logger) delayqueue.DelayQueue {
	if strings.HasPrefix(queueURL, "redis://") {
		opts, err := redis.ParseURL(queueURL)
		if err != nil {
			panic(fmt.Errorf("invalid delay queue URL: %w", err))
		}

		return delayqueue.NewRedisQueue(redis.NewClient(opts), logger)
	}

	return delayqueue.NewMemoryQueue(logger)
}
