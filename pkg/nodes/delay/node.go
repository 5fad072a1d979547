// Package delay provides the time-delay node executor. The node computes the
// wait and reports it; the engine persists resume state, schedules the
// continuation with the delay queue, and exits traversal for this branch.
package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

var unitDurations = map[Unit]time.Duration{
	UnitSeconds: time.Second,
	UnitMinutes: time.Minute,
	UnitHours:   time.Hour,
	UnitDays:    24 * time.Hour,
}

type DelayNode struct {
	id       string
	duration time.Duration
}

func NewDelayNode(id string, config map[string]any) (*DelayNode, error) {
	duration, ok := toFloat(config["duration"])
	if !ok || duration < 0 {
		return nil, fmt.Errorf("%w: time_delay requires a non-negative 'duration'", protocol.ErrInvalidConfig)
	}

	unit, _ := config["unit"].(string)

	base, ok := unitDurations[Unit(unit)]
	if !ok {
		return nil, fmt.Errorf("%w: time_delay has unknown unit %q", protocol.ErrInvalidConfig, unit)
	}

	return &DelayNode{
		id:       id,
		duration: time.Duration(duration * float64(base)),
	}, nil
}

func (n *DelayNode) ID() string {
	return n.id
}

func (n *DelayNode) Type() models.NodeType {
	return models.NodeTypeTimeDelay
}

// Duration returns the computed wait.
func (n *DelayNode) Duration() time.Duration {
	return n.duration
}

func (n *DelayNode) Execute(_ context.Context, _ models.ExecutionContext) (*models.NodeOutcome, error) {
	d := n.duration

	return &models.NodeOutcome{
		Delay: &d,
		Result: map[string]any{
			"delay_ms": d.Milliseconds(),
		},
	}, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
