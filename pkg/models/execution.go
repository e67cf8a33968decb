package models

import (
	"regexp"
	"time"
)

// ExecutionStatus defines the possible states of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusError     ExecutionStatus = "error"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// NodeStatus defines the possible states of a single node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// ExecutionRun is one end-to-end execution of a workflow graph. It is created
// before traversal begins and finalized exactly once on completion.
type ExecutionRun struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	Input       string          `json:"input,omitempty"`
	Output      string          `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMS  int64           `json:"duration_ms,omitempty"`
}

// ExecutionLog records one node execution attempt within a run.
type ExecutionLog struct {
	ID          string     `json:"id"`
	ExecutionID string     `json:"execution_id"`
	NodeID      string     `json:"node_id"`
	NodeName    string     `json:"node_name"`
	NodeType    string     `json:"node_type"`
	Status      NodeStatus `json:"status"`
	Input       string     `json:"input,omitempty"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
}

// ExecutionResult is the normalized outcome of a single node execution.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NodeOutput is a completed node's output as seen by downstream template
// resolution: display label, node kind or action type tag, and the data.
type NodeOutput struct {
	Label    string `json:"label"`
	NodeType string `json:"node_type"`
	Data     any    `json:"data"`
}

var nodeIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeNodeID replaces every non-alphanumeric character with "_". Sanitized
// ids key the outputs map used by template lookups.
func SanitizeNodeID(id string) string {
	return nodeIDSanitizer.ReplaceAllString(id, "_")
}
