// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionAlreadyExists indicates an execution record with the same
	// identifier already exists.
	ErrExecutionAlreadyExists = errors.New("execution already exists")

	// ErrNodeExecutionNotFound indicates no node execution entry exists for
	// the given node id.
	ErrNodeExecutionNotFound = errors.New("node execution not found")

	// ErrBranchNotFound indicates no branch exists with the given id.
	ErrBranchNotFound = errors.New("branch not found")
)

// ExecutionError wraps execution-record errors with operation context.
type ExecutionError struct {
	Op          string // Operation being performed (e.g. "EnsureNodeExecution")
	ExecutionID string
	NodeID      string // Node id if applicable
	Err         error
}

func (e *ExecutionError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s failed for node %s in execution %s: %v", e.Op, e.NodeID, e.ExecutionID, e.Err)
	}

	return fmt.Sprintf("%s failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates an execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// NewNodeExecutionError creates an execution error scoped to one node.
func NewNodeExecutionError(op, executionID, nodeID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, NodeID: nodeID, Err: err}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution record was
// not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsNodeExecutionNotFound checks if an error indicates a node execution entry
// was not found.
func IsNodeExecutionNotFound(err error) bool {
	return errors.Is(err, ErrNodeExecutionNotFound)
}
