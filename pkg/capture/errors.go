package capture

import "errors"

// ErrEventNotFound indicates a captured webhook event was not found.
var ErrEventNotFound = errors.New("webhook event not found")

// IsEventNotFound checks if an error indicates a captured event was not found.
func IsEventNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}
