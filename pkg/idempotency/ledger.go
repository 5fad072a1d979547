// Package idempotency maps deterministic keys to previously produced results
// so external effects run at most once per node per run, regardless of
// retries and duplicate resume deliveries.
package idempotency

import "context"

// ComputeFunc produces the result of an external effect.
type ComputeFunc func(ctx context.Context) (map[string]any, error)

// Ledger caches effect results by key. GetOrCompute returns the cached result
// without invoking compute when the key is already present; cached reports
// which path was taken.
type Ledger interface {
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (result map[string]any, cached bool, err error)
}

// Key builds the deterministic idempotency key for a node within a run. The
// scheme is stable across retries and resumes.
func Key(executionID, nodeID string) string {
	return executionID + ":" + nodeID
}
