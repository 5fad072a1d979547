package models

import (
	"strconv"
	"time"
)

// ExecutionStatus is the lifecycle state of one flow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusDelayed   ExecutionStatus = "delayed"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// BranchStatus is the lifecycle state of one traversal branch.
type BranchStatus string

const (
	BranchStatusRunning   BranchStatus = "running"
	BranchStatusDelayed   BranchStatus = "delayed"
	BranchStatusCompleted BranchStatus = "completed"
	BranchStatusFailed    BranchStatus = "failed"
)

// NodeExecutionStatus is the lifecycle state of one node within a run.
type NodeExecutionStatus string

const (
	NodeExecutionStatusRunning   NodeExecutionStatus = "running"
	NodeExecutionStatusCompleted NodeExecutionStatus = "completed"
	NodeExecutionStatusFailed    NodeExecutionStatus = "failed"
)

// RootBranchID is the id of the branch every run starts on. Fan-out children
// append "_<index>" to their parent's id, keeping branch ancestry readable
// and serializable.
const RootBranchID = "root"

// PathEntry records one visited node on a branch.
type PathEntry struct {
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
}

// Branch is one concurrent traversal path within a run. A branch completes
// when it reaches an end node or is superseded by fan-out children.
type Branch struct {
	ID            string       `json:"id"`
	Status        BranchStatus `json:"status"`
	CurrentNodeID string       `json:"current_node_id"`
	Path          []PathEntry  `json:"path"`
}

// ChildBranchID builds the hierarchical id of a fan-out child.
func ChildBranchID(parentID string, index int) string {
	return parentID + "_" + strconv.Itoa(index)
}

// NodeExecution records one node's execution within a run. There is at most
// one entry per node id; end nodes increment ArrivalCount instead of
// creating duplicates.
type NodeExecution struct {
	NodeID         string              `json:"node_id"`
	NodeType       NodeType            `json:"node_type"`
	Status         NodeExecutionStatus `json:"status"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
	Result         map[string]any      `json:"result,omitempty"`
	Error          string              `json:"error,omitempty"`
	IdempotencyKey string              `json:"idempotency_key"`
	RetryCount     int                 `json:"retry_count"`
	ArrivalCount   int                 `json:"arrival_count,omitempty"`
}

// ResumeData is the saved continuation persisted across a time delay.
type ResumeData struct {
	NextNodeIDs []string       `json:"next_node_ids"`
	Context     map[string]any `json:"context"`
	BranchID    string         `json:"branch_id"`
}

// ExecutionRecord is the durable per-run document. It exclusively owns its
// branches and node executions; the flow it references is shared, read-only.
type ExecutionRecord struct {
	ID             string           `json:"id"`
	FlowID         string           `json:"flow_id"`
	TriggerType    string           `json:"trigger_type"`
	Context        map[string]any   `json:"context"`
	Status         ExecutionStatus  `json:"status"`
	Branches       []*Branch        `json:"branches"`
	NodeExecutions []*NodeExecution `json:"node_executions"`
	ResumeAt       *time.Time       `json:"resume_at,omitempty"`
	Resume         *ResumeData      `json:"resume,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// NodeExecutionByID returns the node execution entry for the given node id.
func (r *ExecutionRecord) NodeExecutionByID(nodeID string) (*NodeExecution, bool) {
	for _, ne := range r.NodeExecutions {
		if ne.NodeID == nodeID {
			return ne, true
		}
	}

	return nil, false
}

// BranchByID returns the branch with the given id.
func (r *ExecutionRecord) BranchByID(branchID string) (*Branch, bool) {
	for _, branch := range r.Branches {
		if branch.ID == branchID {
			return branch, true
		}
	}

	return nil, false
}

// FailedNodeIDs lists the node ids whose executions are marked failed.
func (r *ExecutionRecord) FailedNodeIDs() []string {
	var ids []string

	for _, ne := range r.NodeExecutions {
		if ne.Status == NodeExecutionStatusFailed {
			ids = append(ids, ne.NodeID)
		}
	}

	return ids
}

// HasOtherBranchInStatus reports whether any branch other than branchID is in
// the given status. Used to decide run-level status transitions around delays.
func (r *ExecutionRecord) HasOtherBranchInStatus(branchID string, status BranchStatus) bool {
	for _, branch := range r.Branches {
		if branch.ID != branchID && branch.Status == status {
			return true
		}
	}

	return false
}
