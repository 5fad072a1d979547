package models

import "time"

// NodeOutcome is what a node executor hands back to the traversal engine.
//
// A plain action sets only Result. A conditional split additionally sets
// Handle to the edge handle that should be followed. A time delay sets Delay;
// the engine then persists resume state and schedules the continuation
// instead of recursing.
type NodeOutcome struct {
	Result map[string]any
	Handle string
	Delay  *time.Duration
}
