// Package delayqueue provides the delayed-continuation capability: schedule
// a resume job after a duration, deliver it at least once to the registered
// handler.
package delayqueue

import (
	"context"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
)

// Job is the resume payload carried across a time delay. It holds everything
// needed to re-enter traversal without the scheduling process's memory.
type Job struct {
	ID          string            `json:"id"`
	ExecutionID string            `json:"execution_id"`
	FlowID      string            `json:"flow_id"`
	Resume      models.ResumeData `json:"resume"`
	FireAt      time.Time         `json:"fire_at"`
}

// Handler consumes a fired job. Delivery is at least once; handlers must be
// idempotent.
type Handler func(ctx context.Context, job Job) error

// DelayQueue schedules jobs and delivers them to the registered handler once
// their delay elapses. Extra delay beyond the requested duration is
// tolerated.
type DelayQueue interface {
	Schedule(ctx context.Context, job Job, delay time.Duration) error
	OnFire(handler Handler)
	Start(ctx context.Context) error
	Close() error
}
