package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

// StepLogger records per-node step logs. Logging is best effort: a failed
// write is reported to the application log and never interrupts the run.
type StepLogger struct {
	executions persistence.ExecutionRepository
	logger     *slog.Logger
}

// NewStepLogger creates a step logger backed by the given execution repository.
func NewStepLogger(executions persistence.ExecutionRepository, logger *slog.Logger) *StepLogger {
	return &StepLogger{executions: executions, logger: logger}
}

// StepHandle tracks one in-flight step log. A nil handle is safe to complete.
type StepHandle struct {
	id        string
	startedAt time.Time
	steps     *StepLogger
}

// Start records that a node began executing and returns a handle for
// completing the entry. Returns nil when the write fails.
func (sl *StepLogger) Start(ctx context.Context, executionID string, node *models.WorkflowNode, input map[string]any) *StepHandle {
	startedAt := time.Now().UTC()

	entry := &models.ExecutionLog{
		ID:          uuid.NewString(),
		ExecutionID: executionID,
		NodeID:      node.ID,
		NodeName:    node.DisplayName(),
		NodeType:    node.ActionType(),
		Status:      models.NodeStatusRunning,
		Input:       marshalStepData(input),
		StartedAt:   startedAt,
	}

	if node.IsTriggerNode() {
		entry.NodeType = node.TriggerType()
	}

	err := sl.executions.CreateLog(ctx, entry)
	if err != nil {
		sl.logger.WarnContext(ctx, "Failed to create step log",
			"execution_id", executionID, "node_id", node.ID, "error", err)

		return nil
	}

	return &StepHandle{id: entry.ID, startedAt: startedAt, steps: sl}
}

// Complete marks the step as finished with the given terminal status.
func (h *StepHandle) Complete(ctx context.Context, status models.NodeStatus, output any, errMessage string) {
	if h == nil {
		return
	}

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(h.startedAt).Milliseconds()
	outputJSON := marshalStepData(output)

	err := h.steps.executions.UpdateLog(ctx, h.id, persistence.LogUpdate{
		Status:      &status,
		Output:      &outputJSON,
		Error:       &errMessage,
		CompletedAt: &completedAt,
		DurationMS:  &duration,
	})
	if err != nil {
		h.steps.logger.WarnContext(ctx, "Failed to complete step log", "log_id", h.id, "error", err)
	}
}

func marshalStepData(data any) string {
	if data == nil {
		return ""
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return string(payload)
}
