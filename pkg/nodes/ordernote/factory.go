package ordernote

import (
	"context"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type OrderNoteNodeFactory struct {
	notes adapters.OrderNotes
}

func NewOrderNoteNodeFactory(notes adapters.OrderNotes) protocol.NodeExecutorFactory {
	return &OrderNoteNodeFactory{notes: notes}
}

func (f *OrderNoteNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewOrderNoteNode(id, config, f.notes)
}

func (f *OrderNoteNodeFactory) Type() models.NodeType {
	return models.NodeTypeAddOrderNote
}

func (f *OrderNoteNodeFactory) Name() string {
	return "Add Order Note"
}

func (f *OrderNoteNodeFactory) Description() string {
	return "Attaches a note to the order that triggered the flow."
}

func (f *OrderNoteNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"note": map[string]any{
				"type":        "string",
				"description": "Note body. Supports templating.",
			},
			"order_id_field": map[string]any{
				"type":        "string",
				"description": "Context field holding the order id.",
				"default":     defaultOrderIDField,
			},
		},
		"required": []string{"note"},
	}
}
