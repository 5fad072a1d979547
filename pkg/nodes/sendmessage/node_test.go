package sendmessage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

func newMessenger() *adapters.MockMessenger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return adapters.NewMockMessenger(idempotency.NewMemoryLedger(), logger)
}

func testScope(data map[string]any) models.ExecutionContext {
	return models.ExecutionContext{
		ExecutionID: "exec-1",
		FlowID:      "flow-1",
		BranchID:    models.RootBranchID,
		TriggerType: "order_created",
		Data:        data,
	}
}

func TestSendMessageNode_LiteralRecipient(t *testing.T) {
	messenger := newMessenger()

	node, err := NewSendMessageNode("send", map[string]any{
		"to":      "ada@example.com",
		"message": "hello",
	}, messenger)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), testScope(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", outcome.Result["to"])
	assert.Equal(t, "sent", outcome.Result["status"])
	assert.Equal(t, int64(1), messenger.Sent.Load())
}

func TestSendMessageNode_RecipientFromContextField(t *testing.T) {
	messenger := newMessenger()

	node, err := NewSendMessageNode("send", map[string]any{
		"to":      "customer_email",
		"message": "hello",
	}, messenger)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), testScope(map[string]any{
		"customer_email": "ada@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", outcome.Result["to"])
}

func TestSendMessageNode_TemplatedBody(t *testing.T) {
	messenger := newMessenger()

	node, err := NewSendMessageNode("send", map[string]any{
		"to":      "ada@example.com",
		"message": "Your order {{.context.order_id}} has shipped",
	}, messenger)
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), testScope(map[string]any{
		"order_id": "o-42",
	}))
	require.NoError(t, err)
}

func TestSendMessageNode_DeduplicatesAcrossReruns(t *testing.T) {
	messenger := newMessenger()

	node, err := NewSendMessageNode("send", map[string]any{
		"to":      "ada@example.com",
		"message": "hello",
	}, messenger)
	require.NoError(t, err)

	scope := testScope(map[string]any{})

	first, err := node.Execute(context.Background(), scope)
	require.NoError(t, err)

	second, err := node.Execute(context.Background(), scope)
	require.NoError(t, err)

	assert.Equal(t, first.Result["message_id"], second.Result["message_id"])
	assert.Equal(t, int64(1), messenger.Sent.Load())
}

func TestSendMessageNode_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "missing recipient", config: map[string]any{"message": "hello"}},
		{name: "missing body and template", config: map[string]any{"to": "ada@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSendMessageNode("send", tt.config, newMessenger())
			require.Error(t, err)
			assert.True(t, protocol.IsConfigError(err))
		})
	}
}
