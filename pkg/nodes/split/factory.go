package split

import (
	"context"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type SplitNodeFactory struct{}

func NewSplitNodeFactory() protocol.NodeExecutorFactory {
	return &SplitNodeFactory{}
}

func (f *SplitNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewSplitNode(id, config)
}

func (f *SplitNodeFactory) Type() models.NodeType {
	return models.NodeTypeConditionalSplit
}

func (f *SplitNodeFactory) Name() string {
	return "Conditional Split"
}

func (f *SplitNodeFactory) Description() string {
	return "Evaluates condition groups against the trigger context and routes the branch down the true or false edge."
}

func (f *SplitNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"logic": map[string]any{
				"type":    "string",
				"enum":    []string{"and", "or"},
				"default": "and",
			},
			"groups": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"logic": map[string]any{
							"type":    "string",
							"enum":    []string{"and", "or"},
							"default": "and",
						},
						"conditions": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"field":    map[string]any{"type": "string"},
									"operator": map[string]any{
										"type": "string",
										"enum": []string{
											"equals", "not_equals", "contains",
											"greater_than", "less_than",
											"greater_or_equal", "less_or_equal",
										},
									},
									"value": map[string]any{},
								},
								"required": []string{"field", "operator"},
							},
						},
					},
					"required": []string{"conditions"},
				},
			},
		},
		"required": []string{"groups"},
	}
}
