package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/hookflow/hookflow/pkg/capture"
	"github.com/hookflow/hookflow/pkg/eventbus"
	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
	"github.com/hookflow/hookflow/pkg/registry"
	"github.com/hookflow/hookflow/pkg/workflow"
)

const defaultExecutionsLimit = 50

type APIHandlers struct {
	persistence  persistence.Persistence
	manager      *workflow.Manager
	captureStore capture.Store
	registry     *registry.Registry
	eventBus     eventbus.EventBus
	validator    *validator.Validate
	logger       *slog.Logger
}

func NewAPIHandlers(
	p persistence.Persistence,
	manager *workflow.Manager,
	captureStore capture.Store,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence:  p,
		manager:      manager,
		captureStore: captureStore,
		registry:     registry,
		eventBus:     eventBus,
		validator:    validator,
		logger:       logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())
	captureErr := h.captureStore.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if repositoryErr != nil || captureErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": healthCheckMessage(repositoryErr),
			"capture":    healthCheckMessage(captureErr),
		},
		"timestamp": time.Now().UTC(),
	})
}

func healthCheckMessage(err error) string {
	if err != nil {
		return err.Error()
	}

	return "ok"
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	found, err := h.persistence.Workflows().ByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	nodes := transformNodes(req.Nodes)
	if detail := h.validateGraph(nodes); detail != "" {
		return badRequest(c, detail)
	}

	status := models.WorkflowStatusDraft
	if req.Status != "" {
		status = models.WorkflowStatus(req.Status)
	}

	webhookID := req.WebhookID
	if webhookID == "" {
		webhookID = uuid.NewString()
	}

	created := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		WebhookID:   webhookID,
		Status:      status,
		Nodes:       nodes,
		Edges:       transformEdges(req.Edges),
	}

	err := h.persistence.Workflows().Save(c.Context(), created)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.Workflows().ByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.WebhookID != nil {
		existing.WebhookID = *req.WebhookID
	}

	if req.Status != nil {
		existing.Status = models.WorkflowStatus(*req.Status)
	}

	if req.Nodes != nil {
		nodes := transformNodes(*req.Nodes)
		if detail := h.validateGraph(nodes); detail != "" {
			return badRequest(c, detail)
		}

		existing.Nodes = nodes
	}

	if req.Edges != nil {
		existing.Edges = transformEdges(*req.Edges)
	}

	err = h.persistence.Workflows().Save(c.Context(), existing)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.persistence.Workflows().Delete(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	err = h.persistence.Executions().DeleteExecutionsByWorkflow(c.Context(), id)
	if err != nil {
		h.logger.WarnContext(c.Context(), "Failed to delete executions for workflow",
			"workflow_id", id, "error", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	found, err := h.persistence.Workflows().ByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	run, err := h.manager.StartExecution(c.Context(), found, req.Input)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"execution_id": run.ID,
		"status":       run.Status,
	})
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	limit, err := parseLimit(c, defaultExecutionsLimit)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	if _, err := h.persistence.Workflows().ByID(c.Context(), id); err != nil {
		return handleRepositoryError(c, err)
	}

	runs, err := h.persistence.Executions().ExecutionsByWorkflow(c.Context(), id, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(runs)
}

// parseLimit reads the limit query parameter, clamped to the given maximum.
func parseLimit(c fiber.Ctx, maximum int) (int, error) {
	limit := maximum

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return 0, fmt.Errorf("invalid limit %q", limitStr)
		}

		if parsed > 0 && parsed < maximum {
			limit = parsed
		}
	}

	return limit, nil
}

// DeleteWorkflowExecutions removes every run and step log for a workflow.
func (h *APIHandlers) DeleteWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if _, err := h.persistence.Workflows().ByID(c.Context(), id); err != nil {
		return handleRepositoryError(c, err)
	}

	runs, err := h.persistence.Executions().ExecutionsByWorkflow(c.Context(), id, 0)
	if err != nil {
		return internalError(c, err)
	}

	err = h.persistence.Executions().DeleteExecutionsByWorkflow(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": len(runs)})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	run, err := h.persistence.Executions().ExecutionByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	logs, err := h.persistence.Executions().LogsByExecution(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	// Last write wins: logs are in insertion order, so later entries for the
	// same node supersede earlier ones.
	nodeStatuses := make(map[string]models.NodeStatus, len(logs))
	for _, entry := range logs {
		nodeStatuses[entry.NodeID] = entry.Status
	}

	return c.JSON(ExecutionResponse{
		ExecutionRun: run,
		NodeStatuses: nodeStatuses,
	})
}

func (h *APIHandlers) GetExecutionLogs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	run, err := h.persistence.Executions().ExecutionByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	logs, err := h.persistence.Executions().LogsByExecution(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution": run,
		"logs":      logs,
	})
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	err := h.manager.CancelExecution(c.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrExecutionNotRunning) {
			return conflict(c, "Execution is not running")
		}

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"execution_id": id,
		"status":       "cancelling",
	})
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	schemas := h.registry.Schemas()
	actions := make([]fiber.Map, 0, len(schemas))

	for _, actionType := range h.registry.ActionTypes() {
		actions = append(actions, fiber.Map{
			"type":   actionType,
			"schema": schemas[actionType],
		})
	}

	return c.JSON(actions)
}

// validateGraph checks the config of every action node whose action type is
// registered. Nodes without a selected action type are legal in drafts and
// fail only at execution time.
func (h *APIHandlers) validateGraph(nodes []*models.WorkflowNode) string {
	for _, node := range nodes {
		if !node.IsActionNode() {
			continue
		}

		actionType := node.ActionType()
		if actionType == "" || !h.registry.HasAction(actionType) {
			continue
		}

		err := h.registry.ValidateNodeConfig(actionType, node.Config)
		if err != nil {
			return "Invalid config for node " + node.ID + ": " + err.Error()
		}
	}

	return ""
}
