package adapters

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/idempotency"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestMockMessenger_DeduplicatesByKey(t *testing.T) {
	messenger := NewMockMessenger(idempotency.NewMemoryLedger(), testLogger())
	ctx := context.Background()

	req := SendMessageRequest{
		To:             "ada@example.com",
		Message:        "hello",
		IdempotencyKey: "exec-1:send",
	}

	first, err := messenger.SendMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "sent", first.Status)

	second, err := messenger.SendMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.MessageID, second.MessageID)

	assert.Equal(t, int64(1), messenger.Sent.Load())
}

func TestMockMessenger_RequiresIdempotencyKey(t *testing.T) {
	messenger := NewMockMessenger(idempotency.NewMemoryLedger(), testLogger())

	_, err := messenger.SendMessage(context.Background(), SendMessageRequest{To: "ada@example.com"})
	assert.Error(t, err)
}

func TestMockMessenger_TransientFailureThenSuccess(t *testing.T) {
	messenger := NewMockMessenger(idempotency.NewMemoryLedger(), testLogger())
	messenger.Fail = errors.New("provider unavailable")
	messenger.FailCount = 2
	ctx := context.Background()

	req := SendMessageRequest{To: "ada@example.com", Message: "hello", IdempotencyKey: "exec-1:send"}

	for range 2 {
		_, err := messenger.SendMessage(ctx, req)
		require.Error(t, err)
	}

	result, err := messenger.SendMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "sent", result.Status)
	assert.Equal(t, int64(1), messenger.Sent.Load())
}

func TestMockOrderNotes_DeduplicatesByKey(t *testing.T) {
	notes := NewMockOrderNotes(idempotency.NewMemoryLedger(), testLogger())
	ctx := context.Background()

	req := OrderNoteRequest{OrderID: "o-1", Note: "VIP order", IdempotencyKey: "exec-1:note"}

	first, err := notes.AddOrderNote(ctx, req)
	require.NoError(t, err)

	second, err := notes.AddOrderNote(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.NoteID, second.NoteID)
	assert.Equal(t, int64(1), notes.Added.Load())
}

func TestMockOrderNotes_RequiresOrderID(t *testing.T) {
	notes := NewMockOrderNotes(idempotency.NewMemoryLedger(), testLogger())

	_, err := notes.AddOrderNote(context.Background(), OrderNoteRequest{Note: "n", IdempotencyKey: "k"})
	assert.Error(t, err)
}

func TestMockCustomerNotes_DeduplicatesByKey(t *testing.T) {
	notes := NewMockCustomerNotes(idempotency.NewMemoryLedger(), testLogger())
	ctx := context.Background()

	req := CustomerNoteRequest{CustomerID: "c-1", Note: "called back", IdempotencyKey: "exec-1:note"}

	_, err := notes.AddCustomerNote(ctx, req)
	require.NoError(t, err)

	_, err = notes.AddCustomerNote(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), notes.Added.Load())
}
