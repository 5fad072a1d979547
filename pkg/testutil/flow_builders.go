// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/seedflow/seedflow/pkg/models"
)

// CreateTestNode creates a test node with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:     uuid.New().String(),
		Type:   models.NodeTypeSendMessage,
		Name:   "Test Node",
		Config: map[string]any{"to": "customer@example.com", "message": "hello"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Config = config
	}
}

// CreateTestFlow creates an active flow with default values that can be
// overridden.
func CreateTestFlow(overrides ...func(*models.Flow)) *models.Flow {
	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        "Test Flow",
		Description: "Flow used in tests",
		TriggerType: "order_created",
		Active:      true,
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// WithTriggerType sets the flow's trigger type.
func WithTriggerType(triggerType string) func(*models.Flow) {
	return func(f *models.Flow) {
		f.TriggerType = triggerType
	}
}

// WithNodes sets the flow's nodes.
func WithNodes(nodes ...*models.Node) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Nodes = nodes
	}
}

// WithEdges sets the flow's edges.
func WithEdges(edges ...*models.Edge) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Edges = edges
	}
}

// Edge builds an unconditional edge between two nodes.
func Edge(source, target string) *models.Edge {
	return &models.Edge{
		ID:     source + "->" + target,
		Source: source,
		Target: target,
	}
}

// HandleEdge builds a conditional split edge with a source handle.
func HandleEdge(source, target, handle string) *models.Edge {
	return &models.Edge{
		ID:           source + "->" + target + ":" + handle,
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	}
}

// LinearFlow builds trigger -> send -> end, the smallest runnable flow.
func LinearFlow() *models.Flow {
	return CreateTestFlow(
		WithNodes(
			CreateTestNode(WithID("trigger"), WithType(models.NodeTypeTrigger), WithConfig(nil)),
			CreateTestNode(WithID("send"), WithType(models.NodeTypeSendMessage),
				WithConfig(map[string]any{"to": "customer@example.com", "message": "hello"})),
			CreateTestNode(WithID("end"), WithType(models.NodeTypeEnd), WithConfig(nil)),
		),
		WithEdges(
			Edge("trigger", "send"),
			Edge("send", "end"),
		),
	)
}
