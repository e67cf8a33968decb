// Package models defines the core domain models for graph-based workflow execution.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft  WorkflowStatus = "draft"  // Editable, not triggerable via webhook
	WorkflowStatusActive WorkflowStatus = "active" // Executable via API, webhook, and schedule
	WorkflowStatusPaused WorkflowStatus = "paused" // Retained but not triggerable
)

// NodeKind distinguishes trigger (root) nodes from action nodes.
type NodeKind string

const (
	NodeKindTrigger NodeKind = "trigger"
	NodeKindAction  NodeKind = "action"
)

// Built-in trigger type display names.
const (
	TriggerTypeWebhook  = "Webhook"
	TriggerTypeSchedule = "Schedule"
	TriggerTypeManual   = "Manual"
)

// Built-in action type display names. These are the values stored in a node's
// "actionType" config key and used for dispatch.
const (
	ActionTypeHTTPRequest = "HTTP Request"
	ActionTypeSendEmail   = "Send Email"
)

// Workflow is a directed graph of trigger and action nodes.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	WebhookID   string          `json:"webhook_id"` // Inbound deliveries to /webhook/{webhook_id} trigger this workflow
	Status      WorkflowStatus  `json:"status"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Edges       []*WorkflowEdge `json:"edges"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WorkflowNode is a node instance in a workflow graph. Config is an untyped
// mapping whose legal keys depend on the node's action or trigger type; each
// dispatcher parses its own typed view of it.
type WorkflowNode struct {
	ID     string         `json:"id"     validate:"required"`
	Kind   NodeKind       `json:"kind"   validate:"required,oneof=trigger action"`
	Label  string         `json:"label"`
	Config map[string]any `json:"config"`
}

// WorkflowEdge is a directed connection between two nodes. Multi-edges are
// allowed: several outgoing edges fan out, several incoming fan in.
type WorkflowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

func (n *WorkflowNode) IsTriggerNode() bool {
	return n.Kind == NodeKindTrigger
}

func (n *WorkflowNode) IsActionNode() bool {
	return n.Kind == NodeKindAction
}

// ActionType returns the configured action type for action nodes, or "" when
// none is selected.
func (n *WorkflowNode) ActionType() string {
	if n.Config == nil {
		return ""
	}

	actionType, _ := n.Config["actionType"].(string)

	return actionType
}

// TriggerType returns the configured trigger type for trigger nodes, or ""
// when none is selected.
func (n *WorkflowNode) TriggerType() string {
	if n.Config == nil {
		return ""
	}

	triggerType, _ := n.Config["triggerType"].(string)

	return triggerType
}

// DisplayName returns a meaningful name for the node: its label when set,
// otherwise the configured action or trigger type, otherwise the kind.
func (n *WorkflowNode) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}

	if n.IsActionNode() {
		if actionType := n.ActionType(); actionType != "" {
			return actionType
		}

		return "Action"
	}

	if n.IsTriggerNode() {
		if triggerType := n.TriggerType(); triggerType != "" {
			return triggerType
		}

		return "Trigger"
	}

	return string(n.Kind)
}

// TriggerNodes returns the nodes that start execution: trigger-kind nodes
// with no incoming edges.
func (w *Workflow) TriggerNodes() []*WorkflowNode {
	incoming := make(map[string]struct{}, len(w.Edges))
	for _, edge := range w.Edges {
		incoming[edge.Target] = struct{}{}
	}

	var triggers []*WorkflowNode

	for _, node := range w.Nodes {
		if _, hasIncoming := incoming[node.ID]; node.IsTriggerNode() && !hasIncoming {
			triggers = append(triggers, node)
		}
	}

	return triggers
}
