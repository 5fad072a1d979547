// Package ordernote provides the add-order-note node executor.
package ordernote

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

const defaultOrderIDField = "order_id"

type OrderNoteNode struct {
	id           string
	note         string
	orderIDField string
	notes        adapters.OrderNotes
}

func NewOrderNoteNode(id string, config map[string]any, notes adapters.OrderNotes) (*OrderNoteNode, error) {
	note, _ := config["note"].(string)
	if note == "" {
		return nil, fmt.Errorf("%w: add_order_note requires 'note'", protocol.ErrInvalidConfig)
	}

	orderIDField, _ := config["order_id_field"].(string)
	if orderIDField == "" {
		orderIDField = defaultOrderIDField
	}

	return &OrderNoteNode{
		id:           id,
		note:         note,
		orderIDField: orderIDField,
		notes:        notes,
	}, nil
}

func (n *OrderNoteNode) ID() string {
	return n.id
}

func (n *OrderNoteNode) Type() models.NodeType {
	return models.NodeTypeAddOrderNote
}

func (n *OrderNoteNode) Execute(ctx context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error) {
	orderID, found := conditions.ResolveField(scope.Data, n.orderIDField)
	if !found {
		return nil, fmt.Errorf("%w: context has no %q field", protocol.ErrInvalidConfig, n.orderIDField)
	}

	note, err := template.RenderWithContext(n.note, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to render note: %w", err)
	}

	result, err := n.notes.AddOrderNote(ctx, adapters.OrderNoteRequest{
		OrderID:        fmt.Sprintf("%v", orderID),
		Note:           note,
		IdempotencyKey: idempotency.Key(scope.ExecutionID, n.id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add order note: %w", err)
	}

	return &models.NodeOutcome{
		Result: map[string]any{
			"note_id":  result.NoteID,
			"order_id": fmt.Sprintf("%v", orderID),
		},
	}, nil
}
