package ir

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a split has no entry in a record it is
// expected to be in. Distinct from a present entry with no value.
var ErrNotFound = errors.New("not found")

// FormatError reports a persisted route or record document that cannot be
// loaded: malformed, wrong shape, or written by another schema version.
type FormatError struct {
	Path    string // file path, empty for in-memory documents
	Version int    // version found in the document, 0 if unknown
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	prefix := "format error"
	if e.Path != "" {
		prefix = e.Path
	}
	msg := fmt.Sprintf("%s: %s", prefix, e.Message)
	if e.Version != 0 {
		msg = fmt.Sprintf("%s (version %d)", msg, e.Version)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
