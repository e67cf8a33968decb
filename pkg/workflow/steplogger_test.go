package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hookflow/hookflow/pkg/mocks"
	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence/file"
)

func TestStepLoggerStartAndComplete(t *testing.T) {
	t.Parallel()

	executions := file.NewExecutionRepository(t.TempDir())
	steps := NewStepLogger(executions, slog.Default())
	ctx := context.Background()

	node := &models.WorkflowNode{
		ID:     "node-1",
		Kind:   models.NodeKindAction,
		Label:  "Notify",
		Config: map[string]any{"actionType": models.ActionTypeHTTPRequest},
	}

	handle := steps.Start(ctx, "exec-1", node, map[string]any{"endpoint": "https://api.example.com"})
	require.NotNil(t, handle)

	logs, err := executions.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.NodeStatusRunning, logs[0].Status)
	assert.Equal(t, "Notify", logs[0].NodeName)
	assert.Equal(t, models.ActionTypeHTTPRequest, logs[0].NodeType)
	assert.Contains(t, logs[0].Input, "api.example.com")
	assert.Nil(t, logs[0].CompletedAt)

	handle.Complete(ctx, models.NodeStatusSuccess, map[string]any{"status": 200}, "")

	logs, err = executions.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.NodeStatusSuccess, logs[0].Status)
	assert.Contains(t, logs[0].Output, "200")
	require.NotNil(t, logs[0].CompletedAt)
	assert.GreaterOrEqual(t, logs[0].DurationMS, int64(0))
}

func TestStepLoggerFailedWriteReturnsNilHandle(t *testing.T) {
	t.Parallel()

	executions := &mocks.MockExecutionRepository{}
	executions.On("CreateLog", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	steps := NewStepLogger(executions, slog.Default())

	node := &models.WorkflowNode{ID: "node-1", Kind: models.NodeKindAction, Label: "Notify"}

	handle := steps.Start(context.Background(), "exec-1", node, nil)
	assert.Nil(t, handle)

	// Completing a nil handle must not panic.
	handle.Complete(context.Background(), models.NodeStatusSuccess, nil, "")

	executions.AssertExpectations(t)
}

func TestStepLoggerTriggerNodeUsesTriggerType(t *testing.T) {
	t.Parallel()

	executions := file.NewExecutionRepository(t.TempDir())
	steps := NewStepLogger(executions, slog.Default())
	ctx := context.Background()

	node := &models.WorkflowNode{
		ID:     "trigger-1",
		Kind:   models.NodeKindTrigger,
		Label:  "Incoming order",
		Config: map[string]any{"triggerType": models.TriggerTypeWebhook},
	}

	handle := steps.Start(ctx, "exec-1", node, nil)
	require.NotNil(t, handle)

	logs, err := executions.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.TriggerTypeWebhook, logs[0].NodeType)
}
