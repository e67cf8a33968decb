// Package web provides the HTTP API for managing and running workflows.
package web

import "github.com/hookflow/hookflow/pkg/models"

// NodeRequest represents a node in a workflow create or update request.
type NodeRequest struct {
	ID     string         `json:"id"     validate:"required"`
	Kind   string         `json:"kind"   validate:"required,oneof=trigger action"`
	Label  string         `json:"label"`
	Config map[string]any `json:"config"`
}

// EdgeRequest represents a directed edge in a workflow create or update request.
type EdgeRequest struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"        validate:"required,min=3"`
	Description string        `json:"description"`
	WebhookID   string        `json:"webhook_id"`
	Status      string        `json:"status"      validate:"omitempty,oneof=draft active paused"`
	Nodes       []NodeRequest `json:"nodes"       validate:"dive"`
	Edges       []EdgeRequest `json:"edges"       validate:"dive"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates; Nodes and
// Edges replace the graph wholesale when present.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	WebhookID   *string        `json:"webhook_id,omitempty"`
	Status      *string        `json:"status,omitempty"      validate:"omitempty,oneof=draft active paused"`
	Nodes       *[]NodeRequest `json:"nodes,omitempty"       validate:"omitempty,dive"`
	Edges       *[]EdgeRequest `json:"edges,omitempty"       validate:"omitempty,dive"`
}

// ExecuteWorkflowRequest carries optional trigger input for a manual run.
type ExecuteWorkflowRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// ExecutionResponse represents an execution run together with the
// last-reported status of each node that has run so far.
type ExecutionResponse struct {
	*models.ExecutionRun

	NodeStatuses map[string]models.NodeStatus `json:"node_statuses"`
}

// ReplayResponse represents an accepted webhook event replay.
type ReplayResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

func transformNodes(nodes []NodeRequest) []*models.WorkflowNode {
	result := make([]*models.WorkflowNode, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, &models.WorkflowNode{
			ID:     node.ID,
			Kind:   models.NodeKind(node.Kind),
			Label:  node.Label,
			Config: node.Config,
		})
	}

	return result
}

func transformEdges(edges []EdgeRequest) []*models.WorkflowEdge {
	result := make([]*models.WorkflowEdge, 0, len(edges))
	for _, edge := range edges {
		result = append(result, &models.WorkflowEdge{
			ID:     edge.ID,
			Source: edge.Source,
			Target: edge.Target,
		})
	}

	return result
}
