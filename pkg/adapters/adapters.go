// Package adapters defines the external action collaborators the engine
// calls: message delivery and order/customer notes. Every adapter dedupes by
// idempotency key before performing its external call.
package adapters

import "context"

// SendMessageRequest is the payload for message delivery.
type SendMessageRequest struct {
	To             string `json:"to"              validate:"required"`
	Message        string `json:"message"`
	Template       string `json:"template,omitempty"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// SendMessageResult is returned by the messaging provider.
type SendMessageResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// OrderNoteRequest attaches a note to an order.
type OrderNoteRequest struct {
	OrderID        string `json:"order_id"        validate:"required"`
	Note           string `json:"note"            validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// CustomerNoteRequest attaches a note to a customer record.
type CustomerNoteRequest struct {
	CustomerID     string `json:"customer_id"     validate:"required"`
	Note           string `json:"note"            validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

// NoteResult is returned for both note kinds.
type NoteResult struct {
	NoteID string `json:"note_id"`
}

type Messenger interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error)
}

type OrderNotes interface {
	AddOrderNote(ctx context.Context, req OrderNoteRequest) (*NoteResult, error)
}

type CustomerNotes interface {
	AddCustomerNote(ctx context.Context, req CustomerNoteRequest) (*NoteResult, error)
}
