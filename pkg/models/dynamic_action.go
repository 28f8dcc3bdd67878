package models

// SerializedAction is the persisted configuration of a dynamic action.
type SerializedAction struct {
	FactoryID string         `json:"factoryId"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
}

// SerializedEvent binds a serialized dynamic action to the triggers it listens on.
// It is the unit of persistence for drilldowns.
type SerializedEvent struct {
	EventID  string           `json:"eventId"`
	Action   SerializedAction `json:"action"`
	Triggers []string         `json:"triggers"`
}

// FactoryContext is handed to action factories. Place is the opaque context
// of the place that opened the drilldown manager.
type FactoryContext struct {
	Place    map[string]any `json:"place,omitempty"`
	Triggers []string       `json:"triggers"`
}

// DrilldownListItem is one row of the existing drilldowns list.
type DrilldownListItem struct {
	ID            string        `json:"id"`
	DrilldownName string        `json:"drilldown_name"`
	ActionName    string        `json:"action_name"`
	Icon          string        `json:"icon,omitempty"`
	Error         string        `json:"error,omitempty"`
	Triggers      []TriggerView `json:"triggers"`
}
