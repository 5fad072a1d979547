// Package web provides HTTP handlers and REST API endpoints for flow and
// execution management.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/seedflow/seedflow/pkg/engine"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/persistence"
)

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	validator   *validator.Validate
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	engine *engine.Engine,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		engine:      engine,
		validator:   validator,
	}
}

// Trigger starts one run per active flow listening for the trigger type.
func (h *APIHandlers) Trigger(c fiber.Ctx) error {
	var req TriggerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	executionIDs, err := h.engine.Trigger(c.Context(), req.TriggerType, req.Payload)
	if err != nil && len(executionIDs) == 0 {
		return internalError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(TriggerResponse{ExecutionIDs: executionIDs})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	record, err := h.persistence.Executions().ExecutionByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(record)
}

// RetryExecution re-enters a failed run at its failed nodes.
func (h *APIHandlers) RetryExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req RetryRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "Invalid request body: "+err.Error())
		}
	}

	record, err := h.persistence.Executions().ExecutionByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if record.Status != models.ExecutionStatusFailed {
		return conflict(c, "execution is not failed")
	}

	if err := h.engine.Retry(c.Context(), id, req.NodeIDs); err != nil {
		return internalError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"execution_id": id,
		"status":       "retrying",
	})
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.persistence.Flows().Flows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(flows)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.persistence.Flows().FlowByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		TriggerType: req.TriggerType,
		Active:      req.Active,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.persistence.Flows().SaveFlow(c.Context(), flow); err != nil {
		return internalError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(flow)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.persistence.Flows().DeleteFlow(c.Context(), id); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": "Persistence is unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Seedflow API is healthy",
	})
}

// RegisterRoutes wires the handlers onto the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Post("/triggers", h.Trigger)

	app.Get("/flows", h.GetFlows)
	app.Post("/flows", h.CreateFlow)
	app.Get("/flows/:id", h.GetFlow)
	app.Delete("/flows/:id", h.DeleteFlow)

	app.Get("/executions/:id", h.GetExecution)
	app.Post("/executions/:id/retry", h.RetryExecution)
}
