package file

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

func testExecution(id, workflowID string, startedAt time.Time) *models.ExecutionRun {
	return &models.ExecutionRun{
		ID:         id,
		WorkflowID: workflowID,
		Status:     models.ExecutionStatusRunning,
		Input:      `{"triggered":true}`,
		StartedAt:  startedAt,
	}
}

func TestExecutionRepository_CreateAndUpdate(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.CreateExecution(ctx, testExecution("exec-1", "wf-1", started)))

	status := models.ExecutionStatusSuccess
	output := `{"done":true}`
	completed := started.Add(120 * time.Millisecond)
	duration := int64(120)

	require.NoError(t, repo.UpdateExecution(ctx, "exec-1", persistence.ExecutionUpdate{
		Status:      &status,
		Output:      &output,
		CompletedAt: &completed,
		DurationMS:  &duration,
	}))

	loaded, err := repo.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, loaded.Status)
	assert.Equal(t, output, loaded.Output)
	assert.Equal(t, duration, loaded.DurationMS)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, `{"triggered":true}`, loaded.Input)
}

func TestExecutionRepository_UpdateMissingExecution(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())

	status := models.ExecutionStatusError
	err := repo.UpdateExecution(context.Background(), "missing", persistence.ExecutionUpdate{Status: &status})
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_ExecutionsByWorkflow(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	base := time.Now().UTC()
	for i := range 5 {
		id := fmt.Sprintf("exec-%d", i)
		require.NoError(t, repo.CreateExecution(ctx, testExecution(id, "wf-1", base.Add(time.Duration(i)*time.Second))))
	}

	require.NoError(t, repo.CreateExecution(ctx, testExecution("exec-other", "wf-2", base)))

	runs, err := repo.ExecutionsByWorkflow(ctx, "wf-1", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, "exec-4", runs[0].ID)
	assert.Equal(t, "exec-2", runs[2].ID)

	all, err := repo.ExecutionsByWorkflow(ctx, "wf-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestExecutionRepository_LogsInsertionOrder(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	started := time.Now().UTC()
	for i := range 3 {
		require.NoError(t, repo.CreateLog(ctx, &models.ExecutionLog{
			ID:          fmt.Sprintf("log-%d", i),
			ExecutionID: "exec-1",
			NodeID:      fmt.Sprintf("node-%d", i),
			Status:      models.NodeStatusRunning,
			StartedAt:   started,
		}))
	}

	logs, err := repo.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "log-0", logs[0].ID)
	assert.Equal(t, "log-2", logs[2].ID)

	empty, err := repo.LogsByExecution(ctx, "exec-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExecutionRepository_UpdateLog(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.CreateLog(ctx, &models.ExecutionLog{
		ID:          "log-1",
		ExecutionID: "exec-1",
		NodeID:      "node-1",
		Status:      models.NodeStatusRunning,
		StartedAt:   time.Now().UTC(),
	}))

	status := models.NodeStatusSuccess
	output := `{"status":200}`
	duration := int64(42)

	require.NoError(t, repo.UpdateLog(ctx, "log-1", persistence.LogUpdate{
		Status:     &status,
		Output:     &output,
		DurationMS: &duration,
	}))

	logs, err := repo.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.NodeStatusSuccess, logs[0].Status)
	assert.Equal(t, output, logs[0].Output)

	err = repo.UpdateLog(ctx, "log-missing", persistence.LogUpdate{Status: &status})
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionLogNotFound(err))
}

func TestExecutionRepository_DeleteExecutionsByWorkflow(t *testing.T) {
	t.Parallel()

	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.CreateExecution(ctx, testExecution("exec-1", "wf-1", time.Now().UTC())))
	require.NoError(t, repo.CreateExecution(ctx, testExecution("exec-2", "wf-2", time.Now().UTC())))
	require.NoError(t, repo.CreateLog(ctx, &models.ExecutionLog{ID: "log-1", ExecutionID: "exec-1", NodeID: "n"}))

	require.NoError(t, repo.DeleteExecutionsByWorkflow(ctx, "wf-1"))

	_, err := repo.ExecutionByID(ctx, "exec-1")
	assert.True(t, persistence.IsExecutionNotFound(err))

	kept, err := repo.ExecutionByID(ctx, "exec-2")
	require.NoError(t, err)
	assert.Equal(t, "wf-2", kept.WorkflowID)

	logs, err := repo.LogsByExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
