package sendemail

import (
	"context"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/protocol"
)

// ActionFactory creates Send Email actions.
type ActionFactory struct{}

// NewActionFactory creates a new ActionFactory.
func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

// Create creates a new Send Email action from the given configuration.
func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

// ID returns the action type display name used for dispatch.
func (f *ActionFactory) ID() string {
	return models.ActionTypeSendEmail
}

// Description returns a brief description of the action.
func (f *ActionFactory) Description() string {
	return "Sends a plain-text email to a recipient via the Resend API."
}

// Schema returns the JSON Schema for configuring this action.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actionType": map[string]any{
				"type": "string",
			},
			"emailTo": map[string]any{
				"title":       "To",
				"type":        "string",
				"description": "Recipient email address. Supports templating with prior node outputs.",
				"examples": []string{
					"user@example.com",
					"{{Webhook.body.email}}",
				},
			},
			"emailSubject": map[string]any{
				"title":       "Subject",
				"type":        "string",
				"description": "Email subject line.",
			},
			"emailBody": map[string]any{
				"title":       "Body",
				"type":        "string",
				"format":      "code",
				"description": "Plain-text email body. Use templating to insert data from previous nodes.",
			},
		},
		"required":             []string{"emailTo", "emailSubject"},
		"additionalProperties": true,
	}
}
