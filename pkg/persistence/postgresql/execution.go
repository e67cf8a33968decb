package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

// ExecutionRepository handles execution run and step log database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , status
  , input
  , output
  , error
  , started_at
  , completed_at
  , duration_ms
`

// CreateExecution inserts a new execution run.
func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.ExecutionRun) error {
	query := `
		INSERT INTO workflow_executions (id, workflow_id, status, input, output, error, started_at, completed_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.Status,
		execution.Input,
		execution.Output,
		execution.Error,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution %s: %w", execution.ID, err)
	}

	return nil
}

// UpdateExecution applies the non-nil fields of update to a stored run.
func (r *ExecutionRepository) UpdateExecution(ctx context.Context, id string, update persistence.ExecutionUpdate) error {
	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	appendAssignment := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.Status != nil {
		appendAssignment("status", *update.Status)
	}

	if update.Output != nil {
		appendAssignment("output", *update.Output)
	}

	if update.Error != nil {
		appendAssignment("error", *update.Error)
	}

	if update.CompletedAt != nil {
		appendAssignment("completed_at", *update.CompletedAt)
	}

	if update.DurationMS != nil {
		appendAssignment("duration_ms", *update.DurationMS)
	}

	if len(assignments) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE workflow_executions SET " + strings.Join(assignments, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update execution %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for execution %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("UpdateExecution", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

// ExecutionByID returns an execution run by its ID.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.ExecutionRun, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ExecutionsByWorkflow returns the runs of a workflow, newest first. A
// non-positive limit returns all of them.
func (r *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	args := []any{workflowID}

	if limit > 0 {
		query += " LIMIT $2"

		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.ExecutionRun, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// DeleteExecutionsByWorkflow removes every run of a workflow. Step logs go
// with them through the ON DELETE CASCADE constraint.
func (r *ExecutionRepository) DeleteExecutionsByWorkflow(ctx context.Context, workflowID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workflow_executions WHERE workflow_id = $1", workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete executions for workflow %s: %w", workflowID, err)
	}

	return nil
}

// CreateLog inserts a new step log.
func (r *ExecutionRepository) CreateLog(ctx context.Context, log *models.ExecutionLog) error {
	query := `
		INSERT INTO workflow_execution_logs (id, execution_id, node_id, node_name, node_type, status, input, output, error, started_at, completed_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ExecutionID,
		log.NodeID,
		log.NodeName,
		log.NodeType,
		log.Status,
		log.Input,
		log.Output,
		log.Error,
		log.StartedAt,
		log.CompletedAt,
		log.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to create log %s: %w", log.ID, err)
	}

	return nil
}

// UpdateLog applies the non-nil fields of update to a stored step log.
func (r *ExecutionRepository) UpdateLog(ctx context.Context, id string, update persistence.LogUpdate) error {
	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	appendAssignment := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.Status != nil {
		appendAssignment("status", *update.Status)
	}

	if update.Output != nil {
		appendAssignment("output", *update.Output)
	}

	if update.Error != nil {
		appendAssignment("error", *update.Error)
	}

	if update.CompletedAt != nil {
		appendAssignment("completed_at", *update.CompletedAt)
	}

	if update.DurationMS != nil {
		appendAssignment("duration_ms", *update.DurationMS)
	}

	if len(assignments) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE workflow_execution_logs SET " + strings.Join(assignments, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update log %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for log %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrExecutionLogNotFound
	}

	return nil
}

// LogsByExecution returns the step logs of a run in insertion order.
func (r *ExecutionRepository) LogsByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT
			id
		  , execution_id
		  , node_id
		  , node_name
		  , node_type
		  , status
		  , input
		  , output
		  , error
		  , started_at
		  , completed_at
		  , duration_ms
		FROM workflow_execution_logs
		WHERE execution_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var log models.ExecutionLog

		err := rows.Scan(
			&log.ID,
			&log.ExecutionID,
			&log.NodeID,
			&log.NodeName,
			&log.NodeType,
			&log.Status,
			&log.Input,
			&log.Output,
			&log.Error,
			&log.StartedAt,
			&log.CompletedAt,
			&log.DurationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}

		logs = append(logs, &log)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return logs, nil
}

func scanExecution(row rowScanner) (*models.ExecutionRun, error) {
	var execution models.ExecutionRun

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&execution.Input,
		&execution.Output,
		&execution.Error,
		&execution.StartedAt,
		&execution.CompletedAt,
		&execution.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	return &execution, nil
}
