package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

func testWorkflow(id, webhookID string) *models.Workflow {
	return &models.Workflow{
		ID:        id,
		Name:      "Order pipeline",
		WebhookID: webhookID,
		Status:    models.WorkflowStatusActive,
		Nodes: []*models.WorkflowNode{
			{ID: "trigger-1", Kind: models.NodeKindTrigger, Label: "Webhook", Config: map[string]any{"triggerType": "Webhook"}},
			{ID: "action-1", Kind: models.NodeKindAction, Label: "Notify", Config: map[string]any{"actionType": "HTTP Request", "endpoint": "https://api.example.com"}},
		},
		Edges: []*models.WorkflowEdge{
			{ID: "edge-1", Source: "trigger-1", Target: "action-1"},
		},
	}
}

func TestWorkflowRepository_SaveAndByID(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	workflow := testWorkflow("wf-1", "hook-1")
	require.NoError(t, repo.Save(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.ByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Order pipeline", loaded.Name)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, models.NodeKindTrigger, loaded.Nodes[0].Kind)
	require.Len(t, loaded.Edges, 1)
	assert.Equal(t, "trigger-1", loaded.Edges[0].Source)
}

func TestWorkflowRepository_ByIDNotFound(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.ByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ByWebhookID(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "hook-1")))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "hook-2")))

	found, err := repo.ByWebhookID(ctx, "hook-2")
	require.NoError(t, err)
	assert.Equal(t, "wf-2", found.ID)

	_, err = repo.ByWebhookID(ctx, "hook-9")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_All(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "hook-1")))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "hook-2")))

	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "hook-1")))
	require.NoError(t, repo.Delete(ctx, "wf-1"))

	_, err := repo.ByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = repo.Delete(ctx, "wf-1")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
