package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrEventNotFound indicates no event is stored under the given id.
	ErrEventNotFound = errors.New("event not found")

	// ErrEventAlreadyExists indicates an event with the same id is already stored.
	ErrEventAlreadyExists = errors.New("event already exists")
)

// EventError wraps event storage errors with additional context.
type EventError struct {
	Op      string // Operation being performed (e.g., "Get", "Create", "Delete")
	EventID string
	Err     error
	Message string
}

func (e *EventError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for event %s: %s (%v)", e.Op, e.EventID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for event %s: %v", e.Op, e.EventID, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for event errors.
func (e *EventError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewEventError creates a new event error with context.
func NewEventError(op, eventID string, err error) *EventError {
	return &EventError{
		Op:      op,
		EventID: eventID,
		Err:     err,
	}
}

// IsEventNotFound checks if an error indicates an event was not found.
func IsEventNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}

// IsEventAlreadyExists checks if an error indicates a duplicate event id.
func IsEventAlreadyExists(err error) bool {
	return errors.Is(err, ErrEventAlreadyExists)
}
