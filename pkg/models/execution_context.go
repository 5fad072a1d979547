package models

// ExecutionContext is the read view handed to node executors: which run and
// branch a node executes on, plus the live context map carried from the
// trigger payload (and across delays).
type ExecutionContext struct {
	ExecutionID string         `json:"execution_id"`
	FlowID      string         `json:"flow_id"`
	BranchID    string         `json:"branch_id"`
	TriggerType string         `json:"trigger_type"`
	Data        map[string]any `json:"data"`
}
