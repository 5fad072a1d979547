package adapters

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/seedflow/seedflow/pkg/idempotency"
)

// MockMessenger is a ledger-backed stand-in for a real messaging provider.
// The underlying "send" runs at most once per idempotency key; Sent counts
// actual sends, not deduplicated calls.
type MockMessenger struct {
	ledger idempotency.Ledger
	logger *slog.Logger

	// Fail, when set, makes the underlying send fail until FailCount sends
	// have been rejected. Used to exercise retry paths.
	Fail      error
	FailCount int32

	Sent  atomic.Int64
	fails atomic.Int32
}

func NewMockMessenger(ledger idempotency.Ledger, logger *slog.Logger) *MockMessenger {
	return &MockMessenger{
		ledger: ledger,
		logger: logger.With("module", "mock_messenger"),
	}
}

func (m *MockMessenger) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error) {
	if req.IdempotencyKey == "" {
		return nil, errors.New("send message requires an idempotency key")
	}

	result, cached, err := m.ledger.GetOrCompute(ctx, req.IdempotencyKey, func(ctx context.Context) (map[string]any, error) {
		if m.Fail != nil && m.fails.Add(1) <= m.FailCount {
			return nil, m.Fail
		}

		m.Sent.Add(1)
		m.logger.InfoContext(ctx, "Delivering message", "to", req.To, "template", req.Template)

		return map[string]any{
			"message_id": "msg-" + uuid.New().String()[:8],
			"status":     "sent",
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if cached {
		m.logger.DebugContext(ctx, "Duplicate send suppressed", "idempotency_key", req.IdempotencyKey)
	}

	return &SendMessageResult{
		MessageID: result["message_id"].(string),
		Status:    result["status"].(string),
	}, nil
}

// MockOrderNotes appends notes to orders through the ledger.
type MockOrderNotes struct {
	ledger idempotency.Ledger
	logger *slog.Logger

	Added atomic.Int64
}

func NewMockOrderNotes(ledger idempotency.Ledger, logger *slog.Logger) *MockOrderNotes {
	return &MockOrderNotes{
		ledger: ledger,
		logger: logger.With("module", "mock_order_notes"),
	}
}

func (m *MockOrderNotes) AddOrderNote(ctx context.Context, req OrderNoteRequest) (*NoteResult, error) {
	if req.OrderID == "" {
		return nil, errors.New("order note requires an order id")
	}

	result, _, err := m.ledger.GetOrCompute(ctx, req.IdempotencyKey, func(ctx context.Context) (map[string]any, error) {
		m.Added.Add(1)
		m.logger.InfoContext(ctx, "Adding order note", "order_id", req.OrderID)

		return map[string]any{"note_id": "note-" + uuid.New().String()[:8]}, nil
	})
	if err != nil {
		return nil, err
	}

	return &NoteResult{NoteID: result["note_id"].(string)}, nil
}

// MockCustomerNotes appends notes to customer records through the ledger.
type MockCustomerNotes struct {
	ledger idempotency.Ledger
	logger *slog.Logger

	Added atomic.Int64
}

func NewMockCustomerNotes(ledger idempotency.Ledger, logger *slog.Logger) *MockCustomerNotes {
	return &MockCustomerNotes{
		ledger: ledger,
		logger: logger.With("module", "mock_customer_notes"),
	}
}

func (m *MockCustomerNotes) AddCustomerNote(ctx context.Context, req CustomerNoteRequest) (*NoteResult, error) {
	if req.CustomerID == "" {
		return nil, errors.New("customer note requires a customer id")
	}

	result, _, err := m.ledger.GetOrCompute(ctx, req.IdempotencyKey, func(ctx context.Context) (map[string]any, error) {
		m.Added.Add(1)
		m.logger.InfoContext(ctx, "Adding customer note", "customer_id", req.CustomerID)

		return map[string]any{"note_id": "note-" + uuid.New().String()[:8]}, nil
	})
	if err != nil {
		return nil, err
	}

	return &NoteResult{NoteID: result["note_id"].(string)}, nil
}
