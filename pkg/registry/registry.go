// Package registry maps action type display names to their dispatchers and
// validates node configuration against each action's schema.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// HasAction reports whether an action type is registered.
func (r *Registry) HasAction(actionType string) bool {
	_, registered := r.actionFactories[actionType]

	return registered
}

// ActionTypes returns the registered action type names, sorted.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}

// Dispatch creates and executes the dispatcher for actionType with an
// already-resolved configuration.
//
// An unknown action type is a plain failure result, never fatal: workflows
// built against a newer action palette must not poison the whole run. A
// non-nil error return is reserved for fatal configuration and client errors
// (see protocol.FatalError).
func (r *Registry) Dispatch(
	ctx context.Context,
	actionType string,
	config map[string]any,
	logger *slog.Logger,
) (models.ExecutionResult, error) {
	factory, registered := r.actionFactories[actionType]
	if !registered {
		return models.ExecutionResult{
			Success: false,
			Error:   fmt.Sprintf("unknown action type: %s", actionType),
		}, nil
	}

	action, err := factory.Create(ctx, config)
	if err != nil {
		return models.ExecutionResult{}, err
	}

	return action.Execute(ctx, logger)
}
