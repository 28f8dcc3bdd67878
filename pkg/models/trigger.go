package models

// TriggerView is the serializable snapshot of a trigger.
type TriggerView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	ActionIDs   []string `json:"action_ids"`
}
