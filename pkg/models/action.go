package models

// ActionContext is the data a trigger carries when it fires.
type ActionContext map[string]any

// Well known action types.
const (
	// ActionTypeDefault marks actions registered directly by plugin code.
	ActionTypeDefault = ""
)

// Grouping places a context menu item in a named section.
type Grouping struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// ActionView is the serializable summary of a registered action for a given context.
type ActionView struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Order       int    `json:"order"`
	DisplayName string `json:"display_name"`
	IconType    string `json:"icon_type,omitempty"`
}
