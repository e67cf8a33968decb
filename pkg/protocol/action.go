// Package protocol defines the contracts between the traversal engine and the
// pluggable action dispatchers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/hookflow/hookflow/pkg/models"
)

// Action performs one external effect with an already-resolved configuration.
//
// Failures that a caller could reasonably retry (5xx responses, transport
// errors) are reported as an ExecutionResult with Success false and a nil
// error. A non-nil error is reserved for fatal conditions (see FatalError):
// the caller must not retry and must record the error message verbatim.
type Action interface {
	Execute(ctx context.Context, logger *slog.Logger) (models.ExecutionResult, error)
}

// ActionFactory creates action instances from node configuration and provides
// metadata about the action type.
type ActionFactory interface {
	// Create builds an action from resolved node configuration. Missing
	// required fields or credentials are reported as a FatalError.
	Create(ctx context.Context, config map[string]any) (Action, error)

	// ID returns the action type display name used for dispatch
	// (e.g. "HTTP Request").
	ID() string

	// Description returns a description of what this action does.
	Description() string

	// Schema returns the JSON Schema for configuring this action.
	Schema() map[string]any
}
