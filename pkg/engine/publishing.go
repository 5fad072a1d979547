package engine

import (
	"context"
	"time"

	"github.com/seedflow/seedflow/pkg/eventbus"
	"github.com/seedflow/seedflow/pkg/events"
	"github.com/seedflow/seedflow/pkg/models"
)

// publish sends a lifecycle event on the bus if one is configured. Event
// delivery is best effort: persistence is the source of truth and a publish
// failure never fails the run.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) publishExecutionStarted(ctx context.Context, flow *models.Flow, executionID string, payload map[string]any) {
	event := events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, flow.ID),
		ExecutionID: executionID,
		TriggerType: flow.TriggerType,
		Context:     payload,
	}
	event.WorkerID = e.workerID

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishExecutionCompleted(ctx context.Context, flow *models.Flow, executionID string) {
	record, err := e.persistence.Executions().ExecutionByID(ctx, executionID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load execution for completion event",
			"execution_id", executionID, "error", err)

		return
	}

	event := events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, flow.ID),
		ExecutionID:   executionID,
		NodesExecuted: len(record.NodeExecutions),
	}
	event.WorkerID = e.workerID

	if record.CompletedAt != nil {
		event.DurationMs = record.CompletedAt.Sub(record.CreatedAt).Milliseconds()
	}

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishExecutionFailed(ctx context.Context, flow *models.Flow, executionID string, cause error) {
	event := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, flow.ID),
		ExecutionID: executionID,
		Error:       cause.Error(),
	}
	event.WorkerID = e.workerID

	if record, err := e.persistence.Executions().ExecutionByID(ctx, executionID); err == nil {
		event.FailedNodeIDs = record.FailedNodeIDs()
	}

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishExecutionDelayed(ctx context.Context, flow *models.Flow, executionID, nodeID, branchID string, resumeAt time.Time) {
	event := events.ExecutionDelayed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionDelayedEvent, flow.ID),
		ExecutionID: executionID,
		NodeID:      nodeID,
		BranchID:    branchID,
		ResumeAt:    resumeAt,
	}
	event.WorkerID = e.workerID

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishExecutionResumed(ctx context.Context, flow *models.Flow, executionID, branchID string, nextNodeIDs []string) {
	event := events.ExecutionResumed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionResumedEvent, flow.ID),
		ExecutionID: executionID,
		BranchID:    branchID,
		NextNodeIDs: nextNodeIDs,
	}
	event.WorkerID = e.workerID

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishNodeFinished(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, branchID string, result map[string]any, duration time.Duration) {
	event := events.NodeFinished{
		BaseEvent:   events.NewBaseEvent(events.NodeFinishedEvent, flow.ID),
		ExecutionID: executionID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		BranchID:    branchID,
		Result:      result,
		DurationMs:  duration.Milliseconds(),
	}
	event.WorkerID = e.workerID

	e.publish(ctx, executionID, event)
}

func (e *Engine) publishNodeFailed(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, branchID string, cause error, retryCount int) {
	event := events.NodeFailed{
		BaseEvent:   events.NewBaseEvent(events.NodeFailedEvent, flow.ID),
		ExecutionID: executionID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		BranchID:    branchID,
		Error:       cause.Error(),
		RetryCount:  retryCount,
	}
	event.WorkerID = e.workerID

	e.publish(ctx, executionID, event)
}
