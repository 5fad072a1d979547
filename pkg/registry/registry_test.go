package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/nodes/delay"
	"github.com/seedflow/seedflow/pkg/protocol"
)

func newRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	reg := NewRegistry(logger)
	reg.RegisterNode(delay.NewDelayNodeFactory())

	return reg
}

func TestRegistry_CreateExecutor(t *testing.T) {
	reg := newRegistry()

	executor, err := reg.CreateExecutor(context.Background(), &models.Node{
		ID:     "wait",
		Type:   models.NodeTypeTimeDelay,
		Config: map[string]any{"duration": float64(5), "unit": "minutes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wait", executor.ID())
	assert.Equal(t, models.NodeTypeTimeDelay, executor.Type())
}

func TestRegistry_UnknownNodeTypeIsConfigError(t *testing.T) {
	reg := newRegistry()

	_, err := reg.CreateExecutor(context.Background(), &models.Node{
		ID:   "mystery",
		Type: models.NodeType("teleport"),
	})
	require.Error(t, err)
	assert.True(t, protocol.IsConfigError(err))
}

func TestRegistry_SchemaViolationIsConfigError(t *testing.T) {
	reg := newRegistry()

	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "missing required keys", config: map[string]any{}},
		{name: "nil config", config: nil},
		{name: "wrong unit", config: map[string]any{"duration": float64(5), "unit": "fortnights"}},
		{name: "negative duration", config: map[string]any{"duration": float64(-1), "unit": "seconds"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.CreateExecutor(context.Background(), &models.Node{
				ID:     "wait",
				Type:   models.NodeTypeTimeDelay,
				Config: tt.config,
			})
			require.Error(t, err)
			assert.True(t, protocol.IsConfigError(err))
		})
	}
}

func TestRegistry_NodeTypes(t *testing.T) {
	reg := newRegistry()

	assert.ElementsMatch(t, []models.NodeType{models.NodeTypeTimeDelay}, reg.NodeTypes())

	factory, ok := reg.Factory(models.NodeTypeTimeDelay)
	require.True(t, ok)
	assert.Equal(t, models.NodeTypeTimeDelay, factory.Type())

	_, ok = reg.Factory(models.NodeType("teleport"))
	assert.False(t, ok)
}
