package customernote

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

func newNotes() *adapters.MockCustomerNotes {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return adapters.NewMockCustomerNotes(idempotency.NewMemoryLedger(), logger)
}

func TestCustomerNoteNode_AddsNote(t *testing.T) {
	notes := newNotes()

	node, err := NewCustomerNoteNode("note", map[string]any{
		"note": "Welcome series completed",
	}, notes)
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{
		ExecutionID: "exec-1",
		Data:        map[string]any{"customer_id": "c-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-9", outcome.Result["customer_id"])
	assert.Equal(t, int64(1), notes.Added.Load())
}

func TestCustomerNoteNode_MissingIDFieldIsConfigError(t *testing.T) {
	node, err := NewCustomerNoteNode("note", map[string]any{"note": "n"}, newNotes())
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{
		ExecutionID: "exec-1",
		Data:        map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, protocol.IsConfigError(err))
}

func TestCustomerNoteNode_RequiresNote(t *testing.T) {
	_, err := NewCustomerNoteNode("note", map[string]any{}, newNotes())
	require.Error(t, err)
	assert.True(t, protocol.IsConfigError(err))
}
