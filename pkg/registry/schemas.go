package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateNodeConfig checks a node's raw configuration against the registered
// action's JSON schema. Template placeholders resolve at execution time, so
// validation runs on the unresolved values and only enforces structure.
func (r *Registry) ValidateNodeConfig(actionType string, config map[string]any) error {
	factory, registered := r.actionFactories[actionType]
	if !registered {
		return fmt.Errorf("unknown action type: %s", actionType)
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config for %q: %w", actionType, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationError := range result.Errors() {
			messages = append(messages, validationError.String())
		}

		return fmt.Errorf("invalid config for %q: %s", actionType, strings.Join(messages, "; "))
	}

	return nil
}

// Schemas returns the JSON schema for every registered action, keyed by
// action type. The API exposes these so clients can render config forms.
func (r *Registry) Schemas() map[string]map[string]any {
	schemas := make(map[string]map[string]any, len(r.actionFactories))
	for actionType, factory := range r.actionFactories {
		schemas[actionType] = factory.Schema()
	}

	return schemas
}
