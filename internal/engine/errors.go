package engine

import (
	"errors"
	"fmt"
)

// ErrQueueClosed is returned by Runner.Enqueue once the runner has stopped.
var ErrQueueClosed = errors.New("command queue closed")

// RuntimeError reports a command the engine cannot apply.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownAction indicates a command names no known action.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeInvalidCount indicates a negative skip or rewind count.
	ErrCodeInvalidCount RuntimeErrorCode = "INVALID_COUNT"

	// ErrCodeMissingRoute indicates a reload command without a route.
	ErrCodeMissingRoute RuntimeErrorCode = "MISSING_ROUTE"
)

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRuntimeError reports whether err is a RuntimeError with code.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
