package customernote

import (
	"context"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type CustomerNoteNodeFactory struct {
	notes adapters.CustomerNotes
}

func NewCustomerNoteNodeFactory(notes adapters.CustomerNotes) protocol.NodeExecutorFactory {
	return &CustomerNoteNodeFactory{notes: notes}
}

func (f *CustomerNoteNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewCustomerNoteNode(id, config, f.notes)
}

func (f *CustomerNoteNodeFactory) Type() models.NodeType {
	return models.NodeTypeAddCustomerNote
}

func (f *CustomerNoteNodeFactory) Name() string {
	return "Add Customer Note"
}

func (f *CustomerNoteNodeFactory) Description() string {
	return "Attaches a note to the customer record referenced by the trigger context."
}

func (f *CustomerNoteNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"note": map[string]any{
				"type":        "string",
				"description": "Note body. Supports templating.",
			},
			"customer_id_field": map[string]any{
				"type":        "string",
				"description": "Context field holding the customer id.",
				"default":     defaultCustomerIDField,
			},
		},
		"required": []string{"note"},
	}
}
