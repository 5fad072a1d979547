// Package schedule publishes trigger events on a cron schedule. Each active
// flow whose trigger node carries a cron expression gets one cron entry;
// firing publishes a FlowTriggered event for the flow's trigger type.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seedflow/seedflow/pkg/eventbus"
	"github.com/seedflow/seedflow/pkg/events"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/persistence"
)

type Source struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	cron        *cron.Cron
}

func NewSource(persistence persistence.Persistence, eventBus eventbus.EventPublisher, logger *slog.Logger) *Source {
	return &Source{
		logger:      logger.With("module", "schedule_source"),
		persistence: persistence,
		eventBus:    eventBus,
	}
}

// Start registers a cron entry for every schedulable active flow and runs
// the scheduler until Stop.
func (s *Source) Start(ctx context.Context) error {
	flows, err := s.persistence.Flows().Flows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list flows: %w", err)
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	registered := 0

	for _, flow := range flows {
		expr, ok := cronExpression(flow)
		if !ok {
			continue
		}

		if _, err := s.cron.AddFunc(expr, s.fire(flow.ID, flow.TriggerType, expr)); err != nil {
			return fmt.Errorf("invalid cron expression %q on flow %s: %w", expr, flow.ID, err)
		}

		registered++
	}

	if registered == 0 {
		s.logger.InfoContext(ctx, "No schedulable flows found")
	}

	s.logger.InfoContext(ctx, "Starting schedule source", "entries", registered)
	s.cron.Start()

	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping schedule source")

	if s.cron != nil {
		s.cron.Stop()
	}

	return nil
}

func (s *Source) fire(flowID, triggerType, expr string) func() {
	return func() {
		ctx := context.Background()

		event := events.FlowTriggered{
			BaseEvent:   events.NewBaseEvent(events.FlowTriggeredEvent, flowID),
			TriggerType: triggerType,
			Payload: map[string]any{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"cron":      expr,
			},
		}

		if err := s.eventBus.Publish(ctx, flowID, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish scheduled trigger",
				"flow_id", flowID, "error", err)

			return
		}

		s.logger.InfoContext(ctx, "Published scheduled trigger",
			"flow_id", flowID, "trigger_type", triggerType)
	}
}

// cronExpression extracts the cron expression from a flow's trigger node
// config. Flows without one are not schedulable.
func cronExpression(flow *models.Flow) (string, bool) {
	if !flow.Active {
		return "", false
	}

	node, ok := flow.TriggerNode()
	if !ok || node.Config == nil {
		return "", false
	}

	expr, ok := node.Config["cron"].(string)
	if !ok || expr == "" {
		return "", false
	}

	return expr, true
}

// ValidateExpression checks a cron expression ahead of flow activation.
func ValidateExpression(expr string) error {
	if expr == "" {
		return errors.New("cron expression is required")
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}
