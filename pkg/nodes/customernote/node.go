// Package customernote provides the add-customer-note node executor.
package customernote

import (
	"context"
	"fmt"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/conditions"
	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
	"github.com/seedflow/seedflow/pkg/template"
)

const defaultCustomerIDField = "customer_id"

type CustomerNoteNode struct {
	id              string
	note            string
	customerIDField string
	notes           adapters.CustomerNotes
}

func NewCustomerNoteNode(id string, config map[string]any, notes adapters.CustomerNotes) (*CustomerNoteNode, error) {
	note, _ := config["note"].(string)
	if note == "" {
		return nil, fmt.Errorf("%w: add_customer_note requires 'note'", protocol.ErrInvalidConfig)
	}

	customerIDField, _ := config["customer_id_field"].(string)
	if customerIDField == "" {
		customerIDField = defaultCustomerIDField
	}

	return &CustomerNoteNode{
		id:              id,
		note:            note,
		customerIDField: customerIDField,
		notes:           notes,
	}, nil
}

func (n *CustomerNoteNode) ID() string {
	return n.id
}

func (n *CustomerNoteNode) Type() models.NodeType {
	return models.NodeTypeAddCustomerNote
}

func (n *CustomerNoteNode) Execute(ctx context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error) {
	customerID, found := conditions.ResolveField(scope.Data, n.customerIDField)
	if !found {
		return nil, fmt.Errorf("%w: context has no %q field", protocol.ErrInvalidConfig, n.customerIDField)
	}

	note, err := template.RenderWithContext(n.note, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to render note: %w", err)
	}

	result, err := n.notes.AddCustomerNote(ctx, adapters.CustomerNoteRequest{
		CustomerID:     fmt.Sprintf("%v", customerID),
		Note:           note,
		IdempotencyKey: idempotency.Key(scope.ExecutionID, n.id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add customer note: %w", err)
	}

	return &models.NodeOutcome{
		Result: map[string]any{
			"note_id":     result.NoteID,
			"customer_id": fmt.Sprintf("%v", customerID),
		},
	}, nil
}
