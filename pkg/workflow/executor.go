package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hookflow/hookflow/pkg/eventbus"
	"github.com/hookflow/hookflow/pkg/events"
	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/registry"
	"github.com/hookflow/hookflow/pkg/template"
)

// Executor walks a workflow graph from its trigger nodes, executing actions
// and fanning out to downstream branches concurrently. Each node runs at most
// once per run, even when several branches converge on it.
type Executor struct {
	registry *registry.Registry
	steps    *StepLogger
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

// NewExecutor creates a workflow executor. The event bus may be nil, in which
// case node completion events are not published.
func NewExecutor(reg *registry.Registry, steps *StepLogger, bus eventbus.EventBus, logger *slog.Logger) *Executor {
	return &Executor{
		registry: reg,
		steps:    steps,
		eventBus: bus,
		logger:   logger,
	}
}

// NodeResult is the outcome of one node, recorded in completion order.
type NodeResult struct {
	NodeID string
	Result models.ExecutionResult
}

// RunOutcome summarizes a finished run. Success is the conjunction of every
// node result. Output carries the data of the last node to complete, and
// Error the message of the first node that failed.
type RunOutcome struct {
	Success bool
	Output  any
	Error   string
	Results []NodeResult
}

type runState struct {
	workflowID string

	mu      sync.Mutex
	visited map[string]bool
	outputs map[string]models.NodeOutput
	results []NodeResult
}

// claim marks a node as started. It returns false when another branch got
// there first.
func (rs *runState) claim(nodeID string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.visited[nodeID] {
		return false
	}

	rs.visited[nodeID] = true

	return true
}

func (rs *runState) record(nodeID string, output models.NodeOutput, result models.ExecutionResult) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.outputs[models.SanitizeNodeID(nodeID)] = output
	rs.results = append(rs.results, NodeResult{NodeID: nodeID, Result: result})
}

// snapshotOutputs copies the outputs seen so far for template resolution.
func (rs *runState) snapshotOutputs() map[string]models.NodeOutput {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	snapshot := make(map[string]models.NodeOutput, len(rs.outputs))
	for key, value := range rs.outputs {
		snapshot[key] = value
	}

	return snapshot
}

func (rs *runState) outcome() RunOutcome {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	outcome := RunOutcome{
		Success: true,
		Results: rs.results,
	}

	for _, nodeResult := range rs.results {
		if !nodeResult.Result.Success {
			outcome.Success = false

			if outcome.Error == "" {
				outcome.Error = nodeResult.Result.Error
			}
		}
	}

	if len(rs.results) > 0 {
		outcome.Output = rs.results[len(rs.results)-1].Result.Data
	}

	return outcome
}

// Run executes the workflow graph and blocks until every reachable branch has
// finished or the context is cancelled.
func (e *Executor) Run(ctx context.Context, workflow *models.Workflow, executionID string, triggerInput map[string]any) RunOutcome {
	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", executionID)

	nodesByID := make(map[string]*models.WorkflowNode, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodesByID[node.ID] = node
	}

	adjacency := make(map[string][]string)
	for _, edge := range workflow.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	state := &runState{
		workflowID: workflow.ID,
		visited:    make(map[string]bool),
		outputs:    make(map[string]models.NodeOutput),
	}

	triggers := workflow.TriggerNodes()
	logger.InfoContext(ctx, "Starting workflow run", "trigger_count", len(triggers))

	var wg sync.WaitGroup

	for _, trigger := range triggers {
		wg.Add(1)

		go func(trigger *models.WorkflowNode) {
			defer wg.Done()
			e.executeNode(ctx, logger, trigger.ID, executionID, nodesByID, adjacency, state, triggerInput)
		}(trigger)
	}

	wg.Wait()

	outcome := state.outcome()
	logger.InfoContext(ctx, "Workflow run finished", "success", outcome.Success, "node_count", len(outcome.Results))

	return outcome
}

func (e *Executor) executeNode(
	ctx context.Context,
	logger *slog.Logger,
	nodeID string,
	executionID string,
	nodesByID map[string]*models.WorkflowNode,
	adjacency map[string][]string,
	state *runState,
	triggerInput map[string]any,
) {
	if ctx.Err() != nil {
		return
	}

	if !state.claim(nodeID) {
		return
	}

	node, found := nodesByID[nodeID]
	if !found {
		logger.WarnContext(ctx, "Edge references missing node, skipping branch", "node_id", nodeID)

		return
	}

	var result models.ExecutionResult

	startedAt := time.Now()

	if node.IsTriggerNode() {
		handle := e.steps.Start(ctx, executionID, node, triggerInput)
		result = triggerResult(triggerInput)
		handle.Complete(ctx, models.NodeStatusSuccess, result.Data, "")
		state.record(nodeID, models.NodeOutput{
			Label:    node.Label,
			NodeType: node.TriggerType(),
			Data:     result.Data,
		}, result)
	} else {
		result = e.executeAction(ctx, logger, node, executionID, state)
		state.record(nodeID, models.NodeOutput{
			Label:    node.Label,
			NodeType: node.ActionType(),
			Data:     result.Data,
		}, result)
	}

	e.publishNodeEvent(ctx, logger, state.workflowID, executionID, nodeID, result, time.Since(startedAt).Milliseconds())

	if !result.Success {
		return
	}

	// Fan out to downstream branches concurrently.
	var wg sync.WaitGroup

	for _, next := range adjacency[nodeID] {
		wg.Add(1)

		go func(next string) {
			defer wg.Done()
			e.executeNode(ctx, logger, next, executionID, nodesByID, adjacency, state, triggerInput)
		}(next)
	}

	wg.Wait()
}

func (e *Executor) executeAction(
	ctx context.Context,
	logger *slog.Logger,
	node *models.WorkflowNode,
	executionID string,
	state *runState,
) models.ExecutionResult {
	actionType := node.ActionType()
	if actionType == "" {
		logger.WarnContext(ctx, "Action node has no action type", "node_id", node.ID)

		return models.ExecutionResult{Success: false, Error: "action node has no action type"}
	}

	resolved := template.Resolve(node.Config, state.snapshotOutputs())

	handle := e.steps.Start(ctx, executionID, node, resolved)

	nodeLogger := logger.With("node_id", node.ID, "action_type", actionType)
	nodeLogger.InfoContext(ctx, "Executing node")

	result, err := e.registry.Dispatch(ctx, actionType, resolved, nodeLogger)
	if err != nil {
		result = models.ExecutionResult{Success: false, Error: err.Error()}
	}

	if result.Success {
		handle.Complete(ctx, models.NodeStatusSuccess, result.Data, "")
		nodeLogger.InfoContext(ctx, "Node completed")
	} else {
		handle.Complete(ctx, models.NodeStatusError, result.Data, result.Error)
		nodeLogger.WarnContext(ctx, "Node failed", "error", result.Error)
	}

	return result
}

// publishNodeEvent reports a node completion on the event bus. Delivery is
// best effort.
func (e *Executor) publishNodeEvent(
	ctx context.Context,
	logger *slog.Logger,
	workflowID string,
	executionID string,
	nodeID string,
	result models.ExecutionResult,
	durationMS int64,
) {
	if e.eventBus == nil {
		return
	}

	var event eventbus.Event

	if result.Success {
		event = events.NodeExecutionFinished{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutionFinishedEvent, workflowID),
			ExecutionID: executionID,
			NodeID:      nodeID,
			Status:      models.NodeStatusSuccess,
			DurationMS:  durationMS,
		}
	} else {
		event = events.NodeExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutionFailedEvent, workflowID),
			ExecutionID: executionID,
			NodeID:      nodeID,
			Error:       result.Error,
			DurationMS:  durationMS,
		}
	}

	err := e.eventBus.Publish(ctx, workflowID, event)
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish node event", "node_id", nodeID, "error", err)
	}
}

// triggerResult synthesizes the output of a trigger node from the payload
// that started the run.
func triggerResult(triggerInput map[string]any) models.ExecutionResult {
	data := map[string]any{
		"triggered": true,
		"timestamp": time.Now().UnixMilli(),
	}

	for key, value := range triggerInput {
		data[key] = value
	}

	return models.ExecutionResult{Success: true, Data: data}
}
