// Package persistence provides the storage abstraction for flows and
// execution records.
package persistence

import (
	"context"
	"time"

	"github.com/seedflow/seedflow/pkg/models"
)

type Persistence interface {
	Flows() FlowRepository
	Executions() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores validated flow graphs. Flows are shared and
// read-only from the engine's point of view.
type FlowRepository interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)

	// ActiveFlowsByTriggerType lists the active flows listening for a
	// trigger type; one trigger event may fan out into several runs.
	ActiveFlowsByTriggerType(ctx context.Context, triggerType string) ([]*models.Flow, error)

	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. The record is the only
// mutable object shared across concurrent branches, so every mutation here is
// a targeted update — a guarded insert, an addressed field update, or an
// atomic increment — never a blind whole-document overwrite. Implementations
// without native conditional-update primitives must serialize writers per
// execution.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, record *models.ExecutionRecord) error
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error)

	// EnsureNodeExecution inserts the entry only if no entry with the same
	// node id exists. It returns the authoritative entry and whether this
	// call created it.
	EnsureNodeExecution(ctx context.Context, executionID string, entry *models.NodeExecution) (*models.NodeExecution, bool, error)

	// CompleteNodeExecution marks the entry completed with its result
	// payload and end time.
	CompleteNodeExecution(ctx context.Context, executionID, nodeID string, result map[string]any) error

	// FailNodeExecution marks the entry failed with the error message.
	FailNodeExecution(ctx context.Context, executionID, nodeID, errMsg string) error

	// RetryNodeExecution resets the entry to running and increments its
	// retry count, returning the new count.
	RetryNodeExecution(ctx context.Context, executionID, nodeID string) (int, error)

	// ResetNodeExecutions resets the targeted failed entries to running,
	// clearing error and retry count. Used by the explicit retry entry
	// point.
	ResetNodeExecutions(ctx context.Context, executionID string, nodeIDs []string) error

	// IncrementEndArrival increments the arrival counter of an end node's
	// entry (inserting it first if absent) and returns the new count.
	IncrementEndArrival(ctx context.Context, executionID string, entry *models.NodeExecution) (int, error)

	// AppendBranches inserts the child branches, skipping any branch id
	// already present.
	AppendBranches(ctx context.Context, executionID string, branches []*models.Branch) error

	SetBranchStatus(ctx context.Context, executionID, branchID string, status models.BranchStatus) error

	// CompleteBranch marks the branch completed and, in the same update,
	// transitions a running run to completed when no branch is left running
	// or delayed. It returns whether this call completed the run, so exactly
	// one arriving branch observes the transition.
	CompleteBranch(ctx context.Context, executionID, branchID string) (bool, error)

	// ResumeBranch flips a delayed branch back to running, returns a delayed
	// run to running, and clears the saved resume state — all in one update.
	// It returns false without mutating anything when the branch is not
	// delayed, which is how duplicate resume deliveries are detected.
	ResumeBranch(ctx context.Context, executionID, branchID string) (bool, error)

	// AdvanceBranch sets the branch's current node and appends it to the
	// branch path.
	AdvanceBranch(ctx context.Context, executionID, branchID string, nodeID string, nodeType models.NodeType) error

	SetStatus(ctx context.Context, executionID string, status models.ExecutionStatus) error

	// CompleteExecution transitions the run to completed and stamps
	// CompletedAt.
	CompleteExecution(ctx context.Context, executionID string) error

	// FailExecution transitions the run to failed with an error summary.
	FailExecution(ctx context.Context, executionID, errMsg string) error

	// ClearError resets the run's error summary and returns it to running.
	ClearError(ctx context.Context, executionID string) error

	SetResume(ctx context.Context, executionID string, resumeAt time.Time, data *models.ResumeData) error
	ClearResume(ctx context.Context, executionID string) error
}
