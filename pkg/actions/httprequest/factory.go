package httprequest

import (
	"context"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/protocol"
)

// ActionFactory creates HTTP Request actions.
type ActionFactory struct{}

// NewActionFactory creates a new ActionFactory.
func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

// Create creates a new HTTP Request action from the given configuration.
func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

// ID returns the action type display name used for dispatch.
func (f *ActionFactory) ID() string {
	return models.ActionTypeHTTPRequest
}

// Description returns a brief description of the action.
func (f *ActionFactory) Description() string {
	return "Performs an HTTP request to a configured endpoint with optional headers and body."
}

// Schema returns the JSON Schema for configuring this action.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actionType": map[string]any{
				"type": "string",
			},
			"endpoint": map[string]any{
				"title":       "Endpoint",
				"type":        "string",
				"description": "The URL to send the request to. Supports templating with prior node outputs.",
				"examples": []string{
					"https://api.example.com/users",
					"{{@node-1:Fetch User.body.callback_url}}",
				},
			},
			"httpMethod": map[string]any{
				"type":        "string",
				"description": "HTTP method to use.",
				"default":     "POST",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"httpHeaders": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Request headers as a JSON object string. Values support templating.",
				"examples": []string{
					`{"Content-Type": "application/json", "Authorization": "Bearer token"}`,
				},
			},
			"httpBody": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Request body content. Ignored for GET requests.",
				"examples": []string{
					`{"name": "Ada", "email": "{{Webhook.body.email}}"}`,
				},
			},
		},
		"required":             []string{"endpoint"},
		"additionalProperties": true,
	}
}
