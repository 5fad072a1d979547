// Package engine implements flow traversal: it walks a flow graph from its
// trigger node, executes each node through the registry, fans out on
// parallel edges, parks branches across time delays and converges them on
// end nodes, recording every transition on the durable execution record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seedflow/seedflow/pkg/delayqueue"
	"github.com/seedflow/seedflow/pkg/eventbus"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/otelhelper"
	"github.com/seedflow/seedflow/pkg/persistence"
	"github.com/seedflow/seedflow/pkg/registry"
)

// maxRetries is how many times a retryable node failure is re-attempted
// before it becomes permanent.
const maxRetries = 3

// BackoffFunc returns how long to wait before retry number attempt
// (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits attempt seconds: 1s before the first retry, 2s before
// the second, 3s before the third.
func LinearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * time.Second
}

type Engine struct {
	workerID    string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	delayQueue  delayqueue.DelayQueue
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	backoff     BackoffFunc
}

func NewEngine(
	workerID string,
	persistence persistence.Persistence,
	registry *registry.Registry,
	delayQueue delayqueue.DelayQueue,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
) *Engine {
	e := &Engine{
		workerID:    workerID,
		logger:      logger.With("module", "engine", "worker_id", workerID),
		persistence: persistence,
		registry:    registry,
		delayQueue:  delayQueue,
		eventBus:    eventBus,
		backoff:     LinearBackoff,
	}

	if delayQueue != nil {
		delayQueue.OnFire(e.HandleResume)
	}

	return e
}

// WithTracer enables span creation around runs and node executions.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// Trigger routes a business event into every active flow listening for its
// trigger type, starting one run per flow. It returns the ids of the runs it
// started; a failed run does not prevent the remaining flows from running.
func (e *Engine) Trigger(ctx context.Context, triggerType string, payload map[string]any) ([]string, error) {
	flows, err := e.persistence.Flows().ActiveFlowsByTriggerType(ctx, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows for trigger %s: %w", triggerType, err)
	}

	if len(flows) == 0 {
		e.logger.InfoContext(ctx, "No active flows for trigger", "trigger_type", triggerType)

		return nil, nil
	}

	executionIDs := make([]string, 0, len(flows))

	var errs []error

	for _, flow := range flows {
		executionID, err := e.StartExecution(ctx, flow, payload)
		if executionID != "" {
			executionIDs = append(executionIDs, executionID)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("flow %s: %w", flow.ID, err))
		}
	}

	return executionIDs, errors.Join(errs...)
}

// StartExecution creates the execution record for one flow and walks the
// graph from its trigger node. It returns the run id even when the run
// failed, so callers can inspect the record.
func (e *Engine) StartExecution(ctx context.Context, flow *models.Flow, payload map[string]any) (string, error) {
	triggerNode, ok := flow.TriggerNode()
	if !ok {
		return "", fmt.Errorf("flow %s has no trigger node", flow.ID)
	}

	executionID := "exec-" + uuid.New().String()

	logger := e.logger.With("flow_id", flow.ID, "execution_id", executionID)
	logger.InfoContext(ctx, "Starting flow execution", "trigger_type", flow.TriggerType)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.execute",
			attribute.String(otelhelper.FlowIDKey, flow.ID),
			attribute.String(otelhelper.ExecutionIDKey, executionID),
			attribute.String(otelhelper.TriggerTypeKey, flow.TriggerType),
			attribute.String(otelhelper.WorkerIDKey, e.workerID),
		)
		defer span.End()
	}

	now := time.Now().UTC()
	record := &models.ExecutionRecord{
		ID:          executionID,
		FlowID:      flow.ID,
		TriggerType: flow.TriggerType,
		Context:     cloneData(payload),
		Status:      models.ExecutionStatusRunning,
		Branches: []*models.Branch{{
			ID:            models.RootBranchID,
			Status:        models.BranchStatusRunning,
			CurrentNodeID: triggerNode.ID,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.persistence.Executions().CreateExecution(ctx, record); err != nil {
		return "", fmt.Errorf("failed to create execution record: %w", err)
	}

	e.publishExecutionStarted(ctx, flow, executionID, payload)

	err := e.runBranch(ctx, flow, executionID, triggerNode.ID, cloneData(payload), models.RootBranchID)
	if err != nil {
		logger.ErrorContext(ctx, "Flow execution failed", "error", err)

		return executionID, err
	}

	return executionID, nil
}

// Retry re-enters a failed run at the given failed nodes without re-running
// anything upstream of them. With no node ids it targets every failed node
// on the record.
func (e *Engine) Retry(ctx context.Context, executionID string, nodeIDs []string) error {
	record, err := e.persistence.Executions().ExecutionByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if record.Status != models.ExecutionStatusFailed {
		return fmt.Errorf("execution %s is not failed (status %s)", executionID, record.Status)
	}

	if len(nodeIDs) == 0 {
		nodeIDs = record.FailedNodeIDs()
	}

	if len(nodeIDs) == 0 {
		return fmt.Errorf("execution %s has no failed nodes to retry", executionID)
	}

	flow, err := e.persistence.Flows().FlowByID(ctx, record.FlowID)
	if err != nil {
		return fmt.Errorf("failed to load flow %s: %w", record.FlowID, err)
	}

	if err := e.persistence.Executions().ResetNodeExecutions(ctx, executionID, nodeIDs); err != nil {
		return fmt.Errorf("failed to reset node executions: %w", err)
	}

	if err := e.persistence.Executions().ClearError(ctx, executionID); err != nil {
		return fmt.Errorf("failed to clear execution error: %w", err)
	}

	e.logger.InfoContext(ctx, "Retrying failed nodes",
		"execution_id", executionID, "node_ids", nodeIDs)

	data := e.rebuildData(record)

	// Every targeted branch goes back to running before any of them is
	// walked, so the first branch reaching an end node cannot complete the
	// run while a sibling is still waiting for its turn.
	branchIDs := make([]string, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		branchIDs[i] = branchForNode(record, nodeID)

		if err := e.persistence.Executions().SetBranchStatus(ctx, executionID, branchIDs[i], models.BranchStatusRunning); err != nil {
			return fmt.Errorf("failed to mark branch %s running: %w", branchIDs[i], err)
		}
	}

	var errs []error

	for i, nodeID := range nodeIDs {
		if err := e.runBranch(ctx, flow, executionID, nodeID, cloneData(data), branchIDs[i]); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", nodeID, err))
		}
	}

	return errors.Join(errs...)
}

// rebuildData reconstructs the live context for re-entry: the trigger
// payload plus the result of every node that already completed, keyed by
// node id. This matches what the context looked like on the original pass.
func (e *Engine) rebuildData(record *models.ExecutionRecord) map[string]any {
	data := cloneData(record.Context)

	for _, entry := range record.NodeExecutions {
		if entry.Status == models.NodeExecutionStatusCompleted && entry.Result != nil {
			data[entry.NodeID] = entry.Result
		}
	}

	return data
}

// branchForNode finds the branch parked on nodeID, falling back to the root
// branch when none matches.
func branchForNode(record *models.ExecutionRecord, nodeID string) string {
	for _, branch := range record.Branches {
		if branch.CurrentNodeID == nodeID {
			return branch.ID
		}
	}

	return models.RootBranchID
}

func cloneData(data map[string]any) map[string]any {
	cloned := make(map[string]any, len(data))
	for k, v := range data {
		cloned[k] = v
	}

	return cloned
}
