package trigger

import (
	"context"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type TriggerNodeFactory struct{}

func NewTriggerNodeFactory() protocol.NodeExecutorFactory {
	return &TriggerNodeFactory{}
}

func (f *TriggerNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewTriggerNode(id, config)
}

func (f *TriggerNodeFactory) Type() models.NodeType {
	return models.NodeTypeTrigger
}

func (f *TriggerNodeFactory) Name() string {
	return "Trigger"
}

func (f *TriggerNodeFactory) Description() string {
	return "Entry point of a flow. Activated by a business event such as a new order or an abandoned checkout."
}

func (f *TriggerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": true,
	}
}
