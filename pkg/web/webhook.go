package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/hookflow/hookflow/pkg/capture"
	"github.com/hookflow/hookflow/pkg/events"
	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

// HandleWebhook ingests an inbound delivery on any HTTP method. The delivery
// is always captured and acknowledged with 200; when an active workflow is
// bound to the webhook ID, a run is started as well.
func (h *APIHandlers) HandleWebhook(c fiber.Ctx) error {
	webhookID := c.Params("id")
	if webhookID == "" {
		return badRequest(c, "Webhook ID is required")
	}

	event := h.buildWebhookEvent(c, webhookID)

	err := h.captureStore.Add(c.Context(), event)
	if err != nil {
		h.logger.WarnContext(c.Context(), "Failed to capture webhook event",
			"webhook_id", webhookID, "error", err)
	}

	h.publishWebhookReceived(c, event)

	response := fiber.Map{
		"success":  true,
		"message":  "webhook received",
		"event_id": event.ID,
	}

	found, err := h.persistence.Workflows().ByWebhookID(c.Context(), webhookID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return c.JSON(response)
		}

		return internalError(c, err)
	}

	if found.Status != models.WorkflowStatusActive || !hasWebhookTrigger(found) {
		return c.JSON(response)
	}

	run, err := h.manager.StartExecution(c.Context(), found, webhookTriggerInput(event))
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to start execution for webhook",
			"webhook_id", webhookID, "workflow_id", found.ID, "error", err)

		return c.JSON(response)
	}

	response["execution_id"] = run.ID

	return c.JSON(response)
}

func (h *APIHandlers) GetWebhookEvents(c fiber.Ctx) error {
	webhookID := c.Params("id")
	if webhookID == "" {
		return badRequest(c, "Webhook ID is required")
	}

	limit, err := parseLimit(c, capture.MaxEventsPerWebhook)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	webhookEvents, err := h.captureStore.List(c.Context(), webhookID)
	if err != nil {
		return internalError(c, err)
	}

	if len(webhookEvents) > limit {
		webhookEvents = webhookEvents[:limit]
	}

	return c.JSON(webhookEvents)
}

func (h *APIHandlers) ClearWebhookEvents(c fiber.Ctx) error {
	webhookID := c.Params("id")
	if webhookID == "" {
		return badRequest(c, "Webhook ID is required")
	}

	err := h.captureStore.Clear(c.Context(), webhookID)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReplayWebhookEvent re-runs the workflow bound to the webhook with a
// previously captured delivery as trigger input.
func (h *APIHandlers) ReplayWebhookEvent(c fiber.Ctx) error {
	webhookID := c.Params("id")
	eventID := c.Params("eventId")

	if webhookID == "" || eventID == "" {
		return badRequest(c, "Webhook ID and event ID are required")
	}

	event, err := h.captureStore.Get(c.Context(), webhookID, eventID)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	found, err := h.persistence.Workflows().ByWebhookID(c.Context(), webhookID)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	run, err := h.manager.StartExecution(c.Context(), found, webhookTriggerInput(event))
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(ReplayResponse{
		ExecutionID: run.ID,
		Status:      string(run.Status),
	})
}

func (h *APIHandlers) buildWebhookEvent(c fiber.Ctx, webhookID string) *capture.WebhookEvent {
	headers := make(map[string]string)
	for name, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	var body any
	if raw := c.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			body = string(raw)
		}
	}

	return &capture.WebhookEvent{
		ID:         uuid.NewString(),
		WebhookID:  webhookID,
		Method:     c.Method(),
		Path:       c.Path(),
		Headers:    headers,
		Query:      c.Queries(),
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}
}

func (h *APIHandlers) publishWebhookReceived(c fiber.Ctx, event *capture.WebhookEvent) {
	if h.eventBus == nil {
		return
	}

	err := h.eventBus.Publish(c.Context(), event.WebhookID, events.WebhookReceived{
		BaseEvent: events.NewBaseEvent(events.WebhookReceivedEvent, event.WebhookID),
		WebhookID: event.WebhookID,
		Method:    event.Method,
		Payload:   event.Body,
	})
	if err != nil {
		h.logger.WarnContext(c.Context(), "Failed to publish webhook event",
			"webhook_id", event.WebhookID, "error", err)
	}
}

// hasWebhookTrigger reports whether any root trigger node is a Webhook
// trigger. Only those workflows are started by inbound deliveries.
func hasWebhookTrigger(wf *models.Workflow) bool {
	for _, node := range wf.TriggerNodes() {
		if node.TriggerType() == models.TriggerTypeWebhook {
			return true
		}
	}

	return false
}

// webhookTriggerInput shapes a captured delivery into the trigger input map
// exposed to template resolution.
func webhookTriggerInput(event *capture.WebhookEvent) map[string]any {
	return map[string]any{
		"method":  event.Method,
		"path":    event.Path,
		"headers": event.Headers,
		"query":   event.Query,
		"body":    event.Body,
	}
}
