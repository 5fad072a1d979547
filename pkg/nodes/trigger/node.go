// Package trigger provides the entry node executor. The trigger node does no
// external work; it stamps the run with its trigger metadata and hands
// traversal to its successors.
package trigger

import (
	"context"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
)

type TriggerNode struct {
	id string
}

func NewTriggerNode(id string, _ map[string]any) (*TriggerNode, error) {
	return &TriggerNode{id: id}, nil
}

func (n *TriggerNode) ID() string {
	return n.id
}

func (n *TriggerNode) Type() models.NodeType {
	return models.NodeTypeTrigger
}

func (n *TriggerNode) Execute(_ context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error) {
	return &models.NodeOutcome{
		Result: map[string]any{
			"trigger_type": scope.TriggerType,
			"received_at":  time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
