// Package registry holds the node executor factories available to the
// traversal engine.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.NodeExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.NodeType]protocol.NodeExecutorFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeExecutorFactory) {
	r.factories[factory.Type()] = factory
}

// NodeTypes lists the registered node types.
func (r *Registry) NodeTypes() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	return types
}

// Factory returns the factory for a node type.
func (r *Registry) Factory(nodeType models.NodeType) (protocol.NodeExecutorFactory, bool) {
	factory, ok := r.factories[nodeType]

	return factory, ok
}

// CreateExecutor validates the node's config against the factory schema and
// builds an executor for it. An unknown node type or a schema violation is a
// configuration error: fatal for the node, never retried.
func (r *Registry) CreateExecutor(ctx context.Context, node *models.Node) (protocol.NodeExecutor, error) {
	factory, ok := r.factories[node.Type]
	if !ok {
		return nil, fmt.Errorf("%w: node type %q not registered", protocol.ErrInvalidConfig, node.Type)
	}

	if err := r.validateConfig(factory, node); err != nil {
		return nil, err
	}

	return factory.Create(ctx, node.ID, node.Config)
}

func (r *Registry) validateConfig(factory protocol.NodeExecutorFactory, node *models.Node) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to validate config for node %s: %v", protocol.ErrInvalidConfig, node.ID, err)
	}

	if !result.Valid() {
		for _, desc := range result.Errors() {
			r.logger.Warn("Node config violates schema", "node_id", node.ID, "node_type", node.Type, "violation", desc.String())
		}

		return fmt.Errorf("%w: config for node %s does not match the %s schema", protocol.ErrInvalidConfig, node.ID, node.Type)
	}

	return nil
}
