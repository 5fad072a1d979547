package split

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

func splitConfig(field, operator string, value any) map[string]any {
	return map[string]any{
		"groups": []any{
			map[string]any{
				"conditions": []any{
					map[string]any{"field": field, "operator": operator, "value": value},
				},
			},
		},
	}
}

func TestSplitNode_RoutesTrue(t *testing.T) {
	node, err := NewSplitNode("split", splitConfig("order_total", "greater_than", 50))
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		Data: map[string]any{"order_total": 75.0},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EdgeHandleTrue, outcome.Handle)
	assert.Equal(t, true, outcome.Result["result"])
	assert.Equal(t, []bool{true}, outcome.Result["group_results"])
}

func TestSplitNode_RoutesFalse(t *testing.T) {
	node, err := NewSplitNode("split", splitConfig("order_total", "greater_than", 50))
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		Data: map[string]any{"order_total": 10.0},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EdgeHandleFalse, outcome.Handle)
	assert.Equal(t, false, outcome.Result["result"])
}

func TestSplitNode_MissingFieldComparesFalse(t *testing.T) {
	node, err := NewSplitNode("split", splitConfig("order_total", "greater_than", 50))
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		Data: map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EdgeHandleFalse, outcome.Handle)
}

func TestSplitNode_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "no groups", config: map[string]any{}},
		{name: "unknown operator", config: splitConfig("order_total", "matches", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitNode("split", tt.config)
			require.Error(t, err)
			assert.True(t, protocol.IsConfigError(err))
		})
	}
}

func TestSplitNodeFactory(t *testing.T) {
	factory := NewSplitNodeFactory()
	assert.Equal(t, models.NodeTypeConditionalSplit, factory.Type())
	assert.NotNil(t, factory.Schema())

	executor, err := factory.Create(context.Background(), "split", splitConfig("a", "equals", 1))
	require.NoError(t, err)
	assert.Equal(t, "split", executor.ID())
}
