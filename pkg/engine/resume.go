package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seedflow/seedflow/pkg/delayqueue"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/persistence"
)

// parkBranch persists the continuation after a time delay node and hands it
// to the delay queue. The branch goes dormant; the run only turns delayed
// when no other branch keeps running.
func (e *Engine) parkBranch(ctx context.Context, flow *models.Flow, executionID string, node *models.Node, data map[string]any, branchID string, delay time.Duration) error {
	edges := flow.OutgoingEdges(node.ID)
	if len(edges) == 0 {
		e.logger.WarnContext(ctx, "Time delay has no outgoing edges, branch stalls",
			"execution_id", executionID, "node_id", node.ID)

		return e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusCompleted)
	}

	nextNodeIDs := make([]string, len(edges))
	for i, edge := range edges {
		nextNodeIDs[i] = edge.Target
	}

	resumeAt := time.Now().UTC().Add(delay)
	resume := &models.ResumeData{
		NextNodeIDs: nextNodeIDs,
		Context:     cloneData(data),
		BranchID:    branchID,
	}

	if err := e.persistence.Executions().SetResume(ctx, executionID, resumeAt, resume); err != nil {
		return fmt.Errorf("failed to persist resume state: %w", err)
	}

	if err := e.persistence.Executions().SetBranchStatus(ctx, executionID, branchID, models.BranchStatusDelayed); err != nil {
		return fmt.Errorf("failed to mark branch delayed: %w", err)
	}

	record, err := e.persistence.Executions().ExecutionByID(ctx, executionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if !record.HasOtherBranchInStatus(branchID, models.BranchStatusRunning) {
		if err := e.persistence.Executions().SetStatus(ctx, executionID, models.ExecutionStatusDelayed); err != nil {
			return fmt.Errorf("failed to mark execution delayed: %w", err)
		}
	}

	job := delayqueue.Job{
		ID:          uuid.New().String(),
		ExecutionID: executionID,
		FlowID:      flow.ID,
		Resume:      *resume,
		FireAt:      resumeAt,
	}

	if err := e.delayQueue.Schedule(ctx, job, delay); err != nil {
		return fmt.Errorf("failed to schedule resume: %w", err)
	}

	e.logger.InfoContext(ctx, "Branch parked on time delay",
		"execution_id", executionID, "branch_id", branchID,
		"node_id", node.ID, "resume_at", resumeAt)
	e.publishExecutionDelayed(ctx, flow, executionID, node.ID, branchID, resumeAt)

	return nil
}

// HandleResume consumes a fired delay job and continues traversal where the
// branch parked. The delay queue delivers at least once; a job whose branch
// is no longer delayed is a duplicate and is dropped.
func (e *Engine) HandleResume(ctx context.Context, job delayqueue.Job) error {
	logger := e.logger.With("execution_id", job.ExecutionID, "branch_id", job.Resume.BranchID)

	record, err := e.persistence.Executions().ExecutionByID(ctx, job.ExecutionID)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			logger.WarnContext(ctx, "Resume job references unknown execution, dropping")

			return nil
		}

		return fmt.Errorf("failed to load execution %s: %w", job.ExecutionID, err)
	}

	// ResumeBranch only succeeds while the branch is delayed, so of N
	// at-least-once deliveries exactly one claims the branch; the rest are
	// duplicates and fall through here.
	resumed, err := e.persistence.Executions().ResumeBranch(ctx, job.ExecutionID, job.Resume.BranchID)
	if err != nil {
		return fmt.Errorf("failed to resume branch %s: %w", job.Resume.BranchID, err)
	}

	if !resumed {
		logger.InfoContext(ctx, "Branch is not delayed, dropping duplicate resume")

		return nil
	}

	flow, err := e.persistence.Flows().FlowByID(ctx, record.FlowID)
	if err != nil {
		return fmt.Errorf("failed to load flow %s: %w", record.FlowID, err)
	}

	logger.InfoContext(ctx, "Resuming delayed branch", "next_node_ids", job.Resume.NextNodeIDs)
	e.publishExecutionResumed(ctx, flow, job.ExecutionID, job.Resume.BranchID, job.Resume.NextNodeIDs)

	data := cloneData(job.Resume.Context)

	if len(job.Resume.NextNodeIDs) == 1 {
		return e.runBranch(ctx, flow, job.ExecutionID, job.Resume.NextNodeIDs[0], data, job.Resume.BranchID)
	}

	// The delay node itself fanned out: resume into child branches.
	edges := make([]*models.Edge, len(job.Resume.NextNodeIDs))
	for i, target := range job.Resume.NextNodeIDs {
		edges[i] = &models.Edge{Target: target}
	}

	return e.fanOut(ctx, flow, job.ExecutionID, edges, data, job.Resume.BranchID)
}
