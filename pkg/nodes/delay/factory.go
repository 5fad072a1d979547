package delay

import (
	"context"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type DelayNodeFactory struct{}

func NewDelayNodeFactory() protocol.NodeExecutorFactory {
	return &DelayNodeFactory{}
}

func (f *DelayNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewDelayNode(id, config)
}

func (f *DelayNodeFactory) Type() models.NodeType {
	return models.NodeTypeTimeDelay
}

func (f *DelayNodeFactory) Name() string {
	return "Time Delay"
}

func (f *DelayNodeFactory) Description() string {
	return "Pauses the branch for a configured duration. The run survives process restarts while waiting."
}

func (f *DelayNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "number",
				"minimum":     0,
				"description": "How long to wait, in the configured unit.",
			},
			"unit": map[string]any{
				"type": "string",
				"enum": []string{string(UnitSeconds), string(UnitMinutes), string(UnitHours), string(UnitDays)},
			},
		},
		"required": []string{"duration", "unit"},
	}
}
