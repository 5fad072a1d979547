// Package protocol defines the interfaces and contracts for pluggable node
// executors.
package protocol

import (
	"context"

	"github.com/seedflow/seedflow/pkg/models"
)

// NodeExecutor drives one node type. Executors are created per execution from
// the node's config and must be safe to re-run under the same idempotency
// key.
type NodeExecutor interface {
	// ID returns the node instance id this executor was created for.
	ID() string

	// Type returns the node type the executor implements.
	Type() models.NodeType

	// Execute runs the node against the execution context and reports how
	// traversal should continue.
	Execute(ctx context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error)
}

// NodeExecutorFactory creates executor instances and provides metadata about
// the node type.
type NodeExecutorFactory interface {
	// Create builds a new executor for a node instance. Config errors are
	// fatal for the node and must not be retried.
	Create(ctx context.Context, id string, config map[string]any) (NodeExecutor, error)

	// Type returns the node type this factory serves.
	Type() models.NodeType

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node does.
	Description() string

	// Schema returns the JSON schema for configuring this node.
	Schema() map[string]any
}
