package uiactions

import (
	"slices"
	"sync"

	"github.com/dukex/uiactions/pkg/models"
)

// Trigger is a named extension point that fans out to the actions attached to it.
// Triggers are shared by pointer between a service and its forks, so membership
// changes made through one are visible through every fork holding the same trigger.
// Bindings change only through Service.AttachAction and Service.DetachAction.
type Trigger struct {
	ID          string `json:"id"                    validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	mu        sync.RWMutex
	actionIDs []string
}

// NewTrigger creates a trigger with the given attached action ids.
func NewTrigger(id, title, description string, actionIDs ...string) *Trigger {
	trigger := &Trigger{
		ID:          id,
		Title:       title,
		Description: description,
	}

	for _, actionID := range actionIDs {
		trigger.attach(actionID)
	}

	return trigger
}

// ActionIDs returns a copy of the attached action ids in attachment order.
func (t *Trigger) ActionIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, len(t.actionIDs))
	copy(ids, t.actionIDs)

	return ids
}

func (t *Trigger) attach(actionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slices.Contains(t.actionIDs, actionID) {
		return false
	}

	t.actionIDs = append(t.actionIDs, actionID)

	return true
}

func (t *Trigger) detach(actionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := len(t.actionIDs)
	t.actionIDs = slices.DeleteFunc(t.actionIDs, func(id string) bool {
		return id == actionID
	})

	return len(t.actionIDs) != before
}

// View returns a point-in-time snapshot of the trigger.
func (t *Trigger) View() models.TriggerView {
	return models.TriggerView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		ActionIDs:   t.ActionIDs(),
	}
}
