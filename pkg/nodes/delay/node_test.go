package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

func TestDelayNode_Units(t *testing.T) {
	tests := []struct {
		name     string
		duration any
		unit     string
		want     time.Duration
	}{
		{name: "seconds", duration: 30, unit: "seconds", want: 30 * time.Second},
		{name: "minutes", duration: 5, unit: "minutes", want: 5 * time.Minute},
		{name: "hours", duration: 2, unit: "hours", want: 2 * time.Hour},
		{name: "days", duration: 3, unit: "days", want: 72 * time.Hour},
		{name: "fractional", duration: 1.5, unit: "minutes", want: 90 * time.Second},
		{name: "zero", duration: 0, unit: "seconds", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewDelayNode("wait", map[string]any{
				"duration": tt.duration,
				"unit":     tt.unit,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.Duration())
		})
	}
}

func TestDelayNode_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "missing duration", config: map[string]any{"unit": "seconds"}},
		{name: "negative duration", config: map[string]any{"duration": -1, "unit": "seconds"}},
		{name: "non-numeric duration", config: map[string]any{"duration": "soon", "unit": "seconds"}},
		{name: "unknown unit", config: map[string]any{"duration": 1, "unit": "fortnights"}},
		{name: "missing unit", config: map[string]any{"duration": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDelayNode("wait", tt.config)
			require.Error(t, err)
			assert.True(t, protocol.IsConfigError(err))
		})
	}
}

func TestDelayNode_ExecuteReportsDelay(t *testing.T) {
	node, err := NewDelayNode("wait", map[string]any{"duration": 2, "unit": "seconds"})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)
	require.NotNil(t, outcome.Delay)
	assert.Equal(t, 2*time.Second, *outcome.Delay)
	assert.EqualValues(t, 2000, outcome.Result["delay_ms"])
}
