package protocol

import (
	"errors"
	"fmt"
)

// FatalError is a configuration-class failure: a missing required field,
// a missing environment credential, or a client (4xx) response. Fatal errors
// are never retried and are recorded verbatim on the node's execution log.
type FatalError struct {
	msg string
}

func (e *FatalError) Error() string {
	return e.msg
}

// NewFatalError creates a FatalError with a formatted message.
func NewFatalError(format string, args ...any) *FatalError {
	return &FatalError{msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError

	return errors.As(err, &fatal)
}
