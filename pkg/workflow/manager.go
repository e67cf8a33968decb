package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hookflow/hookflow/pkg/eventbus"
	"github.com/hookflow/hookflow/pkg/events"
	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

// ErrExecutionNotRunning indicates a cancel request for a run that already
// reached a terminal status or never existed in this process.
var ErrExecutionNotRunning = errors.New("execution is not running")

// Manager orchestrates workflow runs: it creates the execution record,
// launches the graph executor in the background, finalizes the record exactly
// once, and publishes lifecycle events along the way.
type Manager struct {
	persistence persistence.Persistence
	executor    *Executor
	eventBus    eventbus.EventBus
	logger      *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewManager creates a run orchestrator.
func NewManager(p persistence.Persistence, executor *Executor, bus eventbus.EventBus, logger *slog.Logger) *Manager {
	return &Manager{
		persistence: p,
		executor:    executor,
		eventBus:    bus,
		logger:      logger,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// StartExecution creates a run record and launches the workflow in the
// background. It returns as soon as the record is durable so callers can
// respond immediately with the execution ID.
func (m *Manager) StartExecution(ctx context.Context, workflow *models.Workflow, triggerInput map[string]any) (*models.ExecutionRun, error) {
	run := &models.ExecutionRun{
		ID:         uuid.NewString(),
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusRunning,
		Input:      marshalStepData(triggerInput),
		StartedAt:  time.Now().UTC(),
	}

	err := m.persistence.Executions().CreateExecution(ctx, run)
	if err != nil {
		return nil, err
	}

	// The run outlives the HTTP request that started it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	m.mu.Lock()
	m.cancels[run.ID] = cancel
	m.mu.Unlock()

	m.publish(ctx, workflow.ID, events.WorkflowExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflow.ID),
		ExecutionID: run.ID,
	})

	go m.run(runCtx, workflow, run, triggerInput)

	return run, nil
}

// CancelExecution requests cancellation of a running execution.
func (m *Manager) CancelExecution(_ context.Context, executionID string) error {
	m.mu.Lock()
	cancel, found := m.cancels[executionID]
	m.mu.Unlock()

	if !found {
		return ErrExecutionNotRunning
	}

	cancel()

	return nil
}

func (m *Manager) run(ctx context.Context, workflow *models.Workflow, run *models.ExecutionRun, triggerInput map[string]any) {
	defer func() {
		m.mu.Lock()
		delete(m.cancels, run.ID)
		m.mu.Unlock()
	}()

	outcome := m.executor.Run(ctx, workflow, run.ID, triggerInput)

	// Finalization must survive cancellation of the run context.
	finalizeCtx := context.WithoutCancel(ctx)

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(run.StartedAt).Milliseconds()

	status := models.ExecutionStatusSuccess
	if !outcome.Success {
		status = models.ExecutionStatusError
	}

	if ctx.Err() != nil {
		status = models.ExecutionStatusCancelled
	}

	output := marshalOutcomeOutput(outcome.Output)
	errMessage := outcome.Error

	err := m.persistence.Executions().UpdateExecution(finalizeCtx, run.ID, persistence.ExecutionUpdate{
		Status:      &status,
		Output:      &output,
		Error:       &errMessage,
		CompletedAt: &completedAt,
		DurationMS:  &duration,
	})
	if err != nil {
		m.logger.ErrorContext(finalizeCtx, "Failed to finalize execution",
			"execution_id", run.ID, "status", status, "error", err)
	}

	switch status {
	case models.ExecutionStatusSuccess:
		m.publish(finalizeCtx, workflow.ID, events.WorkflowExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, workflow.ID),
			ExecutionID: run.ID,
			DurationMS:  duration,
		})
	case models.ExecutionStatusCancelled:
		m.publish(finalizeCtx, workflow.ID, events.WorkflowExecutionCancelled{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCancelledEvent, workflow.ID),
			ExecutionID: run.ID,
		})
	default:
		m.publish(finalizeCtx, workflow.ID, events.WorkflowExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, workflow.ID),
			ExecutionID: run.ID,
			Error:       errMessage,
			DurationMS:  duration,
		})
	}
}

// publish sends a lifecycle event. Event delivery is best effort.
func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	if m.eventBus == nil {
		return
	}

	err := m.eventBus.Publish(ctx, key, event)
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func marshalOutcomeOutput(output any) string {
	if output == nil {
		return ""
	}

	payload, err := json.Marshal(output)
	if err != nil {
		return ""
	}

	return string(payload)
}
