package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookflow/hookflow/pkg/models"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(WebhookReceivedEvent, "wf-123")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, WebhookReceivedEvent, event.Type)
	assert.Equal(t, "wf-123", event.WorkflowID)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Second)
}

func TestGetType(t *testing.T) {
	assert.Equal(t, WebhookReceivedEvent, WebhookReceived{}.GetType())
	assert.Equal(t, WorkflowExecutionStartedEvent, WorkflowExecutionStarted{}.GetType())
	assert.Equal(t, WorkflowExecutionCompletedEvent, WorkflowExecutionCompleted{}.GetType())
	assert.Equal(t, WorkflowExecutionFailedEvent, WorkflowExecutionFailed{}.GetType())
	assert.Equal(t, WorkflowExecutionCancelledEvent, WorkflowExecutionCancelled{}.GetType())
	assert.Equal(t, NodeExecutionFinishedEvent, NodeExecutionFinished{}.GetType())
	assert.Equal(t, NodeExecutionFailedEvent, NodeExecutionFailed{}.GetType())
}

func TestWebhookReceived_JSONSerialization(t *testing.T) {
	original := &WebhookReceived{
		BaseEvent: NewBaseEvent(WebhookReceivedEvent, "wf-123"),
		WebhookID: "hook-456",
		Method:    "POST",
		Payload:   map[string]any{"order_id": "789"},
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"webhook.received"`)
	assert.Contains(t, string(jsonData), `"webhook_id":"hook-456"`)

	var deserialized WebhookReceived

	err = json.Unmarshal(jsonData, &deserialized)
	require.NoError(t, err)

	assert.Equal(t, original.Type, deserialized.Type)
	assert.Equal(t, original.WebhookID, deserialized.WebhookID)
	assert.Equal(t, original.Method, deserialized.Method)
}

func TestNodeExecutionFinished_JSONSerialization(t *testing.T) {
	original := &NodeExecutionFinished{
		BaseEvent:   NewBaseEvent(NodeExecutionFinishedEvent, "wf-123"),
		ExecutionID: "exec-456",
		NodeID:      "action-1",
		Status:      models.NodeStatusSuccess,
		DurationMS:  42,
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"node.execution.finished"`)
	assert.Contains(t, string(jsonData), `"status":"success"`)

	var deserialized NodeExecutionFinished

	err = json.Unmarshal(jsonData, &deserialized)
	require.NoError(t, err)

	assert.Equal(t, original.ExecutionID, deserialized.ExecutionID)
	assert.Equal(t, original.NodeID, deserialized.NodeID)
	assert.Equal(t, original.Status, deserialized.Status)
	assert.Equal(t, original.DurationMS, deserialized.DurationMS)
}
