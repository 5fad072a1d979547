// Package web provides HTTP request and response types for the flow API.
package web

import "github.com/seedflow/seedflow/pkg/models"

// TriggerRequest announces a business event to be routed into every active
// flow listening for the trigger type.
type TriggerRequest struct {
	TriggerType string         `json:"trigger_type" validate:"required"`
	Payload     map[string]any `json:"payload"`
}

// TriggerResponse lists the runs the event started.
type TriggerResponse struct {
	ExecutionIDs []string `json:"execution_ids"`
}

// RetryRequest targets failed nodes of a failed run. With no node ids every
// failed node on the record is retried.
type RetryRequest struct {
	NodeIDs []string `json:"node_ids,omitempty"`
}

// CreateFlowRequest is the request body for creating a flow.
type CreateFlowRequest struct {
	Name        string         `json:"name"         validate:"required,min=3"`
	Description string         `json:"description"`
	TriggerType string         `json:"trigger_type" validate:"required"`
	Active      bool           `json:"active"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
}
