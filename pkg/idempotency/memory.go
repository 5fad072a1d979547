package idempotency

import (
	"context"
	"sync"
)

// MemoryLedger is a process-scoped ledger. Concurrent callers of the same key
// are serialized on a per-key entry, so compute runs at most once even when a
// duplicate resume races a retry.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once   sync.Once
	result map[string]any
	err    error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]*entry)}
}

func (l *MemoryLedger) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (map[string]any, bool, error) {
	l.mu.Lock()
	e, existed := l.entries[key]

	if !existed {
		e = &entry{}
		l.entries[key] = e
	}
	l.mu.Unlock()

	computed := false

	e.once.Do(func() {
		e.result, e.err = compute(ctx)
		computed = true

		if e.err != nil {
			// A failed effect must stay retryable: drop the entry so the
			// next attempt computes again under the same key.
			l.mu.Lock()
			delete(l.entries, key)
			l.mu.Unlock()
		}
	})

	return e.result, existed && !computed, e.err
}
