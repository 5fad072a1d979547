package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/trace"

	"github.com/seedflow/seedflow/pkg/delayqueue"
	"github.com/seedflow/seedflow/pkg/engine"
	"github.com/seedflow/seedflow/pkg/eventbus"
	"github.com/seedflow/seedflow/pkg/events"
	"github.com/seedflow/seedflow/pkg/persistence"
	"github.com/seedflow/seedflow/pkg/registry"
)

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	delayQueue  delayqueue.DelayQueue
	engine      *engine.Engine
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	delayQueue delayqueue.DelayQueue,
	logger *slog.Logger,
	registry *registry.Registry,
	tracer trace.Tracer,
) *WorkerManager {
	eng := engine.NewEngine(id, persistence, registry, delayQueue, eventBus, logger)
	if tracer != nil {
		eng = eng.WithTracer(tracer)
	}

	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "seedflow-worker", "worker_id", id),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		delayQueue:  delayQueue,
		engine:      eng,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.FlowTriggeredEvent, w.handleFlowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if err := w.delayQueue.Start(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to start delay queue", "error", err)

		return err
	}

	defer func() {
		if err := w.delayQueue.Close(); err != nil {
			w.logger.ErrorContext(ctx, "Failed to close delay queue", "error", err)
		}
	}()

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleFlowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.FlowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for FlowTriggered")

		return nil
	}

	logger := w.logger.With(
		"trigger_type", triggeredEvent.TriggerType,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing flow triggered event")

	payload := make(map[string]any)
	if triggeredEvent.Payload != nil {
		payload = triggeredEvent.Payload
	}

	executionIDs, err := w.engine.Trigger(ctx, triggeredEvent.TriggerType, payload)
	if err != nil {
		logger.ErrorContext(ctx, "Flow execution failed",
			"execution_ids", executionIDs, "error", err)

		// Failures are recorded on the execution records; the event is
		// consumed either way so it is not redelivered.
		return nil
	}

	logger.InfoContext(ctx, "Flow executions finished", "execution_ids", executionIDs)

	return nil
}
