package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/otelhelper"
	"github.com/seedflow/seedflow/pkg/protocol"
)

// runBranch walks one branch node by node until it parks on a delay, fans
// out, fails permanently, or converges on an end node.
func (e *Engine) runBranch(ctx context.Context, flow *models.Flow, executionID, nodeID string, data map[string]any, branchID string) error {
	current := nodeID

	for current != "" {
		node, ok := flow.NodeByID(current)
		if !ok {
			err := fmt.Errorf("node %s not found in flow %s", current, flow.ID)
			e.failExecution(ctx, flow, executionID, branchID, err)

			return err
		}

		next, err := e.step(ctx, flow, executionID, node, data, branchID)
		if err != nil {
			return err
		}

		current = next
	}

	return nil
}

// step executes one node on a branch and returns the id of the next node to
// visit, or "" when the branch is done (end node, delay park, fan-out, or
// dead end).
func (e *Engine) step(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, data map[string]any, branchID string) (string, error) {
	if err := e.persistence.Executions().AdvanceBranch(ctx, executionID, branchID, node.ID, node.Type); err != nil {
		return "", fmt.Errorf("failed to advance branch %s: %w", branchID, err)
	}

	if node.Type == models.NodeTypeEnd {
		return "", e.arriveAtEnd(ctx, flow, executionID, node, branchID)
	}

	outcome, err := e.executeNode(ctx, flow, executionID, node, data, branchID)
	if err != nil {
		return "", err
	}

	if outcome.Result != nil {
		data[node.ID] = outcome.Result
	}

	if outcome.Delay != nil {
		return "", e.parkBranch(ctx, flow, executionID, node, data, branchID, *outcome.Delay)
	}

	return e.route(ctx, flow, executionID, node, outcome, data, branchID)
}

// executeNode runs the node through its executor with the retry policy:
// retryable failures are re-attempted up to maxRetries with backoff,
// configuration errors and exhausted retries fail the run. A node that
// already completed on a previous pass is not re-executed; its recorded
// result is returned instead.
func (e *Engine) executeNode(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, data map[string]any, branchID string) (*models.NodeOutcome, error) {
	logger := e.logger.With(
		"execution_id", executionID,
		"branch_id", branchID,
		"node_id", node.ID,
		"node_type", node.Type,
	)

	entry := &models.NodeExecution{
		NodeID:         node.ID,
		NodeType:       node.Type,
		Status:         models.NodeExecutionStatusRunning,
		StartedAt:      time.Now().UTC(),
		IdempotencyKey: idempotency.Key(executionID, node.ID),
	}

	authoritative, created, err := e.persistence.Executions().EnsureNodeExecution(ctx, executionID, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure node execution %s: %w", node.ID, err)
	}

	if !created && authoritative.Status == models.NodeExecutionStatusCompleted {
		logger.InfoContext(ctx, "Node already completed, skipping re-execution")

		return recordedOutcome(authoritative.Result), nil
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.node",
			attribute.String(otelhelper.ExecutionIDKey, executionID),
			attribute.String(otelhelper.BranchIDKey, branchID),
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		)
		defer span.End()
	}

	executor, err := e.registry.CreateExecutor(ctx, node)
	if err != nil {
		logger.ErrorContext(ctx, "Node configuration rejected", "error", err)
		e.failNode(ctx, flow, executionID, node, branchID, err, 0)

		return nil, err
	}

	scope := models.ExecutionContext{
		ExecutionID: executionID,
		FlowID:      flow.ID,
		BranchID:    branchID,
		TriggerType: flow.TriggerType,
		Data:        data,
	}

	startedAt := time.Now()

	for {
		outcome, err := executor.Execute(ctx, scope)
		if err == nil {
			if outcome == nil {
				outcome = &models.NodeOutcome{}
			}

			if err := e.persistence.Executions().CompleteNodeExecution(ctx, executionID, node.ID, outcome.Result); err != nil {
				return nil, fmt.Errorf("failed to complete node execution %s: %w", node.ID, err)
			}

			logger.InfoContext(ctx, "Node completed", "duration_ms", time.Since(startedAt).Milliseconds())
			e.publishNodeFinished(ctx, flow, executionID, node, branchID, outcome.Result, time.Since(startedAt))

			return outcome, nil
		}

		if protocol.IsConfigError(err) {
			logger.ErrorContext(ctx, "Node configuration rejected", "error", err)
			e.failNode(ctx, flow, executionID, node, branchID, err, 0)

			return nil, err
		}

		retryCount, retryErr := e.persistence.Executions().RetryNodeExecution(ctx, executionID, node.ID)
		if retryErr != nil {
			return nil, fmt.Errorf("failed to record retry for node %s: %w", node.ID, retryErr)
		}

		if retryCount > maxRetries {
			logger.ErrorContext(ctx, "Node failed permanently", "error", err, "attempts", retryCount)
			e.failNode(ctx, flow, executionID, node, branchID, err, retryCount)

			return nil, err
		}

		wait := e.backoff(retryCount)
		logger.WarnContext(ctx, "Node failed, retrying",
			"error", err, "retry", retryCount, "backoff", wait)
		e.publishNodeFailed(ctx, flow, executionID, node, branchID, err, retryCount)

		select {
		case <-ctx.Done():
			e.failNode(ctx, flow, executionID, node, branchID, ctx.Err(), retryCount)

			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// route picks the next node(s) after a successful execution. Conditional
// splits follow the edge matching the outcome handle; plain nodes follow
// their single outgoing edge; multiple unconditional edges fan out into
// child branches.
func (e *Engine) route(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, outcome *models.NodeOutcome, data map[string]any, branchID string) (string, error) {
	if node.Type == models.NodeTypeConditionalSplit {
		edge, ok := flow.OutgoingEdgeByHandle(node.ID, outcome.Handle)
		if !ok {
			// No edge wired to the taken side: the branch silently goes
			// dormant rather than failing the run.
			e.logger.WarnContext(ctx, "Conditional split has no edge for taken side, branch stalls",
				"execution_id", executionID, "node_id", node.ID, "handle", outcome.Handle)

			return "", e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusCompleted)
		}

		return edge.Target, nil
	}

	edges := flow.OutgoingEdges(node.ID)

	switch len(edges) {
	case 0:
		e.logger.WarnContext(ctx, "Node has no outgoing edges, branch stalls",
			"execution_id", executionID, "node_id", node.ID)

		return "", e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusCompleted)
	case 1:
		return edges[0].Target, nil
	default:
		return "", e.fanOut(ctx, flow, executionID, edges, data, branchID)
	}
}

// fanOut supersedes the parent branch with one running child branch per
// outgoing edge and walks the children concurrently, joining their errors.
func (e *Engine) fanOut(ctx context.Context, flow *models.Flow, executionID string, edges []*models.Edge, data map[string]any, branchID string) error {
	children := make([]*models.Branch, len(edges))
	for i, edge := range edges {
		children[i] = &models.Branch{
			ID:            models.ChildBranchID(branchID, i),
			Status:        models.BranchStatusRunning,
			CurrentNodeID: edge.Target,
		}
	}

	if err := e.persistence.Executions().AppendBranches(ctx, executionID, children); err != nil {
		return fmt.Errorf("failed to append branches: %w", err)
	}

	if err := e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete parent branch %s: %w", branchID, err)
	}

	e.logger.InfoContext(ctx, "Fanning out",
		"execution_id", executionID, "parent_branch", branchID, "branches", len(children))

	var wg sync.WaitGroup

	errs := make([]error, len(children))

	for i, child := range children {
		wg.Add(1)

		go func(index int, branch *models.Branch, target string) {
			defer wg.Done()

			errs[index] = e.runBranch(ctx, flow, executionID, target, cloneData(data), branch.ID)
		}(i, child, edges[i].Target)
	}

	wg.Wait()

	return errors.Join(errs...)
}

// arriveAtEnd counts one arrival on the end node and finishes the arriving
// branch. The run completes when the last live branch arrives: a conditional
// split abandons its losing edge, so counting satisfied edges would leave
// such runs waiting for an arrival that can never happen. The arrival counter
// is still kept per end node for audit, and an arrival beyond the node's
// incoming edge count is a convergence anomaly worth logging.
func (e *Engine) arriveAtEnd(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, branchID string) error {
	now := time.Now().UTC()
	entry := &models.NodeExecution{
		NodeID:         node.ID,
		NodeType:       models.NodeTypeEnd,
		Status:         models.NodeExecutionStatusCompleted,
		StartedAt:      now,
		FinishedAt:     &now,
		IdempotencyKey: idempotency.Key(executionID, node.ID),
	}

	arrivals, err := e.persistence.Executions().IncrementEndArrival(ctx, executionID, entry)
	if err != nil {
		return fmt.Errorf("failed to count end arrival: %w", err)
	}

	if incoming := flow.IncomingEdgeCount(node.ID); arrivals > incoming {
		e.logger.WarnContext(ctx, "End node arrivals exceed its incoming edges",
			"execution_id", executionID, "node_id", node.ID,
			"arrivals", arrivals, "incoming_edges", incoming)
	}

	runCompleted, err := e.persistence.Executions().CompleteBranch(ctx, executionID, branchID)
	if err != nil {
		return fmt.Errorf("failed to complete branch %s: %w", branchID, err)
	}

	e.logger.InfoContext(ctx, "Branch reached end node",
		"execution_id", executionID, "branch_id", branchID,
		"node_id", node.ID, "arrivals", arrivals, "run_completed", runCompleted)

	if runCompleted {
		e.publishExecutionCompleted(ctx, flow, executionID)
	}

	return nil
}

// failNode records a permanent node failure and fails the whole run.
func (e *Engine) failNode(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, branchID string, cause error, retryCount int) {
	otelhelper.SetError(trace.SpanFromContext(ctx), cause,
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.Int(otelhelper.RetryCountKey, retryCount),
	)

	if err := e.persistence.Executions().FailNodeExecution(ctx, executionID, node.ID, cause.Error()); err != nil {
		e.logger.ErrorContext(ctx, "Failed to record node failure",
			"execution_id", executionID, "node_id", node.ID, "error", err)
	}

	e.publishNodeFailed(ctx, flow, executionID, node, branchID, cause, retryCount)
	e.failExecution(ctx, flow, executionID, branchID, cause)
}

// failExecution marks the branch and the run failed.
func (e *Engine) failExecution(ctx context.Context, flow *models.Flow, executionID, branchID string, cause error) {
	if err := e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusFailed); err != nil {
		e.logger.ErrorContext(ctx, "Failed to mark branch failed",
			"execution_id", executionID, "branch_id", branchID, "error", err)
	}

	if err := e.persistence.Executions().FailExecution(ctx, executionID, cause.Error()); err != nil {
		e.logger.ErrorContext(ctx, "Failed to mark execution failed",
			"execution_id", executionID, "error", err)
	}

	e.publishExecutionFailed(ctx, flow, executionID, cause)
}

// recordedOutcome rebuilds a node outcome from the persisted result of a
// completed entry, so re-entry after a crash or duplicate resume routes the
// same way the original pass did.
func recordedOutcome(result map[string]any) *models.NodeOutcome {
	outcome := &models.NodeOutcome{Result: result}

	if taken, ok := result["result"].(bool); ok {
		if taken {
			outcome.Handle = models.EdgeHandleTrue
		} else {
			outcome.Handle = models.EdgeHandleFalse
		}
	}

	return outcome
}
