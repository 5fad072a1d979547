// Package events defines event types for run lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/seedflow/seedflow/pkg/models"
)

type EventType string

// Kafka topic carrying all seedflow events.
const Topic = "seedflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger intake.
	FlowTriggeredEvent EventType = "flow.triggered"

	// Run lifecycle.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionDelayedEvent   EventType = "execution.delayed"
	ExecutionResumedEvent   EventType = "execution.resumed"

	// Node lifecycle.
	NodeFinishedEvent EventType = "node.finished"
	NodeFailedEvent   EventType = "node.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// FlowTriggered announces a business event to be routed into active flows.
// FlowID may be empty when the event targets a trigger type rather than one
// flow.
type FlowTriggered struct {
	BaseEvent

	TriggerType string         `json:"trigger_type"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func (e FlowTriggered) GetType() EventType { return FlowTriggeredEvent }

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	TriggerType string         `json:"trigger_type"`
	Context     map[string]any `json:"context,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	NodesExecuted int    `json:"nodes_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string   `json:"execution_id"`
	FailedNodeIDs []string `json:"failed_node_ids"`
	Error         string   `json:"error"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type ExecutionDelayed struct {
	BaseEvent

	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id"`
	BranchID    string    `json:"branch_id"`
	ResumeAt    time.Time `json:"resume_at"`
}

func (e ExecutionDelayed) GetType() EventType { return ExecutionDelayedEvent }

type ExecutionResumed struct {
	BaseEvent

	ExecutionID string   `json:"execution_id"`
	BranchID    string   `json:"branch_id"`
	NextNodeIDs []string `json:"next_node_ids"`
}

func (e ExecutionResumed) GetType() EventType { return ExecutionResumedEvent }

type NodeFinished struct {
	BaseEvent

	ExecutionID string          `json:"execution_id"`
	NodeID      string          `json:"node_id"`
	NodeType    models.NodeType `json:"node_type"`
	BranchID    string          `json:"branch_id"`
	Result      map[string]any  `json:"result,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType { return NodeFinishedEvent }

type NodeFailed struct {
	BaseEvent

	ExecutionID string          `json:"execution_id"`
	NodeID      string          `json:"node_id"`
	NodeType    models.NodeType `json:"node_type"`
	BranchID    string          `json:"branch_id"`
	Error       string          `json:"error"`
	RetryCount  int             `json:"retry_count"`
}

func (e NodeFailed) GetType() EventType { return NodeFailedEvent }
