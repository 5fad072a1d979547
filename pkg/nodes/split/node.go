// Package split provides the conditional-split node executor. This is the
// control flow node that routes a branch down its "true" or "false" edge.
package split

import (
	"context"
	"fmt"

	"github.com/seedflow/seedflow/pkg/conditions"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type SplitNode struct {
	id     string
	config *conditions.Config
}

func NewSplitNode(id string, config map[string]any) (*SplitNode, error) {
	parsed, err := conditions.ParseConfig(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidConfig, err)
	}

	return &SplitNode{id: id, config: parsed}, nil
}

func (n *SplitNode) ID() string {
	return n.id
}

func (n *SplitNode) Type() models.NodeType {
	return models.NodeTypeConditionalSplit
}

func (n *SplitNode) Execute(_ context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error) {
	result, groupResults := conditions.Evaluate(n.config, scope.Data)

	handle := models.EdgeHandleFalse
	if result {
		handle = models.EdgeHandleTrue
	}

	return &models.NodeOutcome{
		Handle: handle,
		Result: map[string]any{
			"result":        result,
			"group_results": groupResults,
		},
	}, nil
}
