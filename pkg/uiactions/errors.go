package uiactions

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateRegistration indicates a trigger or action id is already registered.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrNotFound indicates a trigger or action id is not registered.
	ErrNotFound = errors.New("not found")

	// ErrNoCompatibleActions indicates a fired trigger had nothing to run.
	ErrNoCompatibleActions = errors.New("no compatible actions")

	// ErrNavigationUnavailable indicates an href action fired without a navigator.
	ErrNavigationUnavailable = errors.New("no navigator configured")

	// ErrOverlayUnavailable indicates a menu was needed without an overlay service.
	ErrOverlayUnavailable = errors.New("no overlay configured")
)

// RegistryError carries the ids involved in a failed registry operation.
type RegistryError struct {
	Op        string // Operation being performed (e.g., "RegisterTrigger", "AttachAction")
	TriggerID string
	ActionID  string
	Err       error
	Message   string
}

func (e *RegistryError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

func (e *RegistryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func duplicateTriggerError(triggerID string) *RegistryError {
	return &RegistryError{
		Op:        "RegisterTrigger",
		TriggerID: triggerID,
		Err:       ErrDuplicateRegistration,
		Message:   fmt.Sprintf("Trigger [trigger.id = %s] already registered.", triggerID),
	}
}

func duplicateActionError(actionID string) *RegistryError {
	return &RegistryError{
		Op:       "RegisterAction",
		ActionID: actionID,
		Err:      ErrDuplicateRegistration,
		Message:  fmt.Sprintf("Action [action.id = %s] already registered.", actionID),
	}
}

func triggerNotFoundError(triggerID string) *RegistryError {
	return &RegistryError{
		Op:        "GetTrigger",
		TriggerID: triggerID,
		Err:       ErrNotFound,
		Message:   fmt.Sprintf("Trigger [triggerId = %s] does not exist.", triggerID),
	}
}

func actionNotFoundError(actionID string) *RegistryError {
	return &RegistryError{
		Op:       "GetAction",
		ActionID: actionID,
		Err:      ErrNotFound,
		Message:  fmt.Sprintf("Action [actionId = %s] does not exist.", actionID),
	}
}

func bindingTriggerNotFoundError(op, verb, triggerID, actionID string) *RegistryError {
	return &RegistryError{
		Op:        op,
		TriggerID: triggerID,
		ActionID:  actionID,
		Err:       ErrNotFound,
		Message: fmt.Sprintf(
			"No trigger [triggerId = %s] exists, for %s action [actionId = %s].",
			triggerID, verb, actionID,
		),
	}
}

func noCompatibleActionsError(triggerID string) *RegistryError {
	return &RegistryError{
		Op:        "ExecuteTriggerActions",
		TriggerID: triggerID,
		Err:       ErrNoCompatibleActions,
		Message:   fmt.Sprintf("No compatible actions found to execute for trigger [triggerId = %s].", triggerID),
	}
}

// IsNotFound checks if an error indicates a missing trigger or action.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateRegistration checks if an error indicates a duplicate id.
func IsDuplicateRegistration(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration)
}

// IsNoCompatibleActions checks if an error indicates a trigger fired with nothing to run.
func IsNoCompatibleActions(err error) bool {
	return errors.Is(err, ErrNoCompatibleActions)
}
