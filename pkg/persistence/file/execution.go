package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/persistence"
)

// ExecutionRepository handles execution run and step log file operations.
// Step logs for one run live in a single JSON array file so that insertion
// order survives restarts. A mutex serializes the read-modify-write cycles
// because node goroutines log concurrently.
type ExecutionRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) executionPath(id string) string {
	return filepath.Clean(path.Join(er.root, "executions", id+".json"))
}

func (er *ExecutionRepository) logsPath(executionID string) string {
	return filepath.Clean(path.Join(er.root, "execution_logs", executionID+".json"))
}

// CreateExecution persists a new execution run.
func (er *ExecutionRepository) CreateExecution(_ context.Context, execution *models.ExecutionRun) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := os.MkdirAll(path.Join(er.root, "executions"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	return er.writeExecution(execution)
}

// UpdateExecution applies the non-nil fields of update to a stored run.
func (er *ExecutionRepository) UpdateExecution(_ context.Context, id string, update persistence.ExecutionUpdate) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	execution, err := er.readExecution(id)
	if err != nil {
		return err
	}

	if update.Status != nil {
		execution.Status = *update.Status
	}

	if update.Output != nil {
		execution.Output = *update.Output
	}

	if update.Error != nil {
		execution.Error = *update.Error
	}

	if update.CompletedAt != nil {
		execution.CompletedAt = update.CompletedAt
	}

	if update.DurationMS != nil {
		execution.DurationMS = *update.DurationMS
	}

	return er.writeExecution(execution)
}

// ExecutionByID retrieves an execution run by its ID.
func (er *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.ExecutionRun, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.readExecution(id)
}

// ExecutionsByWorkflow returns the runs of a workflow, newest first. A
// non-positive limit returns all of them.
func (er *ExecutionRepository) ExecutionsByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	executions, err := er.readAllExecutions()
	if err != nil {
		return nil, err
	}

	matched := make([]*models.ExecutionRun, 0)

	for _, execution := range executions {
		if execution.WorkflowID == workflowID {
			matched = append(matched, execution)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// DeleteExecutionsByWorkflow removes every run of a workflow along with its step logs.
func (er *ExecutionRepository) DeleteExecutionsByWorkflow(_ context.Context, workflowID string) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	executions, err := er.readAllExecutions()
	if err != nil {
		return err
	}

	for _, execution := range executions {
		if execution.WorkflowID != workflowID {
			continue
		}

		if err := os.Remove(er.executionPath(execution.ID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete execution %s: %w", execution.ID, err)
		}

		if err := os.Remove(er.logsPath(execution.ID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete logs for execution %s: %w", execution.ID, err)
		}
	}

	return nil
}

// CreateLog appends a step log to its execution's log file.
func (er *ExecutionRepository) CreateLog(_ context.Context, log *models.ExecutionLog) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := os.MkdirAll(path.Join(er.root, "execution_logs"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create execution_logs directory: %w", err)
	}

	logs, err := er.readLogs(log.ExecutionID)
	if err != nil {
		return err
	}

	logs = append(logs, log)

	return er.writeLogs(log.ExecutionID, logs)
}

// UpdateLog applies the non-nil fields of update to a stored step log.
func (er *ExecutionRepository) UpdateLog(_ context.Context, id string, update persistence.LogUpdate) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	files, err := er.logFiles()
	if err != nil {
		return err
	}

	for _, executionID := range files {
		logs, err := er.readLogs(executionID)
		if err != nil {
			return err
		}

		for _, log := range logs {
			if log.ID != id {
				continue
			}

			if update.Status != nil {
				log.Status = *update.Status
			}

			if update.Output != nil {
				log.Output = *update.Output
			}

			if update.Error != nil {
				log.Error = *update.Error
			}

			if update.CompletedAt != nil {
				log.CompletedAt = update.CompletedAt
			}

			if update.DurationMS != nil {
				log.DurationMS = *update.DurationMS
			}

			return er.writeLogs(executionID, logs)
		}
	}

	return persistence.ErrExecutionLogNotFound
}

// LogsByExecution returns the step logs of a run in insertion order.
func (er *ExecutionRepository) LogsByExecution(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.readLogs(executionID)
}

func (er *ExecutionRepository) readExecution(id string) (*models.ExecutionRun, error) {
	body, err := os.ReadFile(er.executionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.ExecutionRun

	err = json.Unmarshal(body, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (er *ExecutionRepository) writeExecution(execution *models.ExecutionRun) error {
	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	return os.WriteFile(er.executionPath(execution.ID), data, 0600)
}

func (er *ExecutionRepository) readAllExecutions() ([]*models.ExecutionRun, error) {
	root := os.DirFS(path.Join(er.root, "executions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.ExecutionRun, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		execution, err := er.readExecution(file[:len(file)-5])
		if err != nil {
			if persistence.IsExecutionNotFound(err) {
				continue
			}

			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

func (er *ExecutionRepository) readLogs(executionID string) ([]*models.ExecutionLog, error) {
	body, err := os.ReadFile(er.logsPath(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ExecutionLog{}, nil
		}

		return nil, fmt.Errorf("failed to fetch logs for execution %s: %w", executionID, err)
	}

	var logs []*models.ExecutionLog

	err = json.Unmarshal(body, &logs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal logs for execution %s: %w", executionID, err)
	}

	return logs, nil
}

func (er *ExecutionRepository) writeLogs(executionID string, logs []*models.ExecutionLog) error {
	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal logs for execution %s: %w", executionID, err)
	}

	return os.WriteFile(er.logsPath(executionID), data, 0600)
}

func (er *ExecutionRepository) logFiles() ([]string, error) {
	root := os.DirFS(path.Join(er.root, "execution_logs"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, file[:len(file)-5])
	}

	return ids, nil
}
