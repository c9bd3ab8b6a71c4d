package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound matches any NotFoundError through errors.Is.
var ErrNotFound = errors.New("formula not found")

// ValidationError reports client-side rule violations, one message per field.
type ValidationError struct {
	// Summary is an optional page-level message shown above the field errors.
	Summary string
	Fields  map[Field]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+1)
	if e.Summary != "" {
		parts = append(parts, e.Summary)
	}
	for _, field := range Fields {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	if len(parts) == 0 {
		return "formula: validation failed"
	}
	return "formula: " + strings.Join(parts, "; ")
}

// Message returns the violation recorded for field, if any.
func (e *ValidationError) Message(field Field) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}

// NotFoundError reports that the backend has no record for ID.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("formula %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RemoteError covers network failures, timeouts and unexpected responses.
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("formula %s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("formula %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
