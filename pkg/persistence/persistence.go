// Package persistence provides the data storage abstraction layer for
// workflows, execution runs, and step logs.
package persistence

import (
	"context"
	"time"

	"github.com/hookflow/hookflow/pkg/models"
)

type Persistence interface {
	Workflows() WorkflowRepository
	Executions() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type WorkflowRepository interface {
	All(ctx context.Context) ([]*models.Workflow, error)
	ByID(ctx context.Context, id string) (*models.Workflow, error)
	ByWebhookID(ctx context.Context, webhookID string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.ExecutionRun) error
	UpdateExecution(ctx context.Context, id string, update ExecutionUpdate) error
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionRun, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error)
	DeleteExecutionsByWorkflow(ctx context.Context, workflowID string) error

	CreateLog(ctx context.Context, log *models.ExecutionLog) error
	UpdateLog(ctx context.Context, id string, update LogUpdate) error
	LogsByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)
}

// ExecutionUpdate carries the mutable fields of an execution run. Nil fields
// are left untouched.
type ExecutionUpdate struct {
	Status      *models.ExecutionStatus
	Output      *string
	Error       *string
	CompletedAt *time.Time
	DurationMS  *int64
}

// LogUpdate carries the mutable fields of a step log. Nil fields are left
// untouched.
type LogUpdate struct {
	Status      *models.NodeStatus
	Output      *string
	Error       *string
	CompletedAt *time.Time
	DurationMS  *int64
}
