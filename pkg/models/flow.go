// Package models defines the core domain models for node-based flow execution.
package models

import "time"

// NodeType identifies the behavior of a flow node.
type NodeType string

const (
	NodeTypeTrigger          NodeType = "trigger"
	NodeTypeSendMessage      NodeType = "send_message"
	NodeTypeAddOrderNote     NodeType = "add_order_note"
	NodeTypeAddCustomerNote  NodeType = "add_customer_note"
	NodeTypeTimeDelay        NodeType = "time_delay"
	NodeTypeConditionalSplit NodeType = "conditional_split"
	NodeTypeEnd              NodeType = "end"
)

// Edge source handles used by conditional splits.
const (
	EdgeHandleTrue  = "true"
	EdgeHandleFalse = "false"
)

// Node is a single typed step in a flow graph.
type Node struct {
	ID     string         `json:"id"   validate:"required"`
	Type   NodeType       `json:"type" validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Edge connects a source node to a target node. SourceHandle is set only on
// edges leaving a conditional split ("true" or "false").
type Edge struct {
	ID           string `json:"id"     validate:"required"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
}

// Flow is a validated flow graph. Structural guarantees (single trigger, at
// least one end, reachability, acyclicity) are enforced by the authoring
// layer before a flow is activated; the engine only validates node config.
type Flow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"         validate:"required,min=3"`
	Description string    `json:"description"`
	TriggerType string    `json:"trigger_type" validate:"required"`
	Active      bool      `json:"active"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given id.
func (f *Flow) NodeByID(id string) (*Node, bool) {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// TriggerNode returns the flow's trigger node.
func (f *Flow) TriggerNode() (*Node, bool) {
	for _, node := range f.Nodes {
		if node.Type == NodeTypeTrigger {
			return node, true
		}
	}

	return nil, false
}

// OutgoingEdges returns all edges whose source is the given node, in
// definition order.
func (f *Flow) OutgoingEdges(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range f.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// OutgoingEdgeByHandle returns the edge leaving nodeID whose source handle
// matches handle.
func (f *Flow) OutgoingEdgeByHandle(nodeID, handle string) (*Edge, bool) {
	for _, edge := range f.Edges {
		if edge.Source == nodeID && edge.SourceHandle == handle {
			return edge, true
		}
	}

	return nil, false
}

// IncomingEdgeCount counts edges targeting the given node. For end nodes this
// bounds the arrival counter: conditional splits abandon their losing edge,
// so fewer arrivals than edges is normal, but more is an anomaly.
func (f *Flow) IncomingEdgeCount(nodeID string) int {
	count := 0

	for _, edge := range f.Edges {
		if edge.Target == nodeID {
			count++
		}
	}

	return count
}
