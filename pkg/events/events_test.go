package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	t.Parallel()

	base := NewBaseEvent(DynamicActionDeletedEvent, "instance-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, DynamicActionDeletedEvent, base.Type)
	assert.Equal(t, "instance-1", base.Source)
	assert.False(t, base.Timestamp.IsZero())
}

func TestDynamicActionCreated_JSON(t *testing.T) {
	t.Parallel()

	created := DynamicActionCreated{
		BaseEvent: NewBaseEvent(DynamicActionCreatedEvent, "instance-1"),
		Event: models.SerializedEvent{
			EventID:  "e1",
			Action:   models.SerializedAction{FactoryID: "URL_DRILLDOWN", Name: "Docs"},
			Triggers: []string{"VALUE_CLICK_TRIGGER"},
		},
	}

	payload, err := json.Marshal(created)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"type":"dynamic_action.created"`)
	assert.Contains(t, string(payload), `"factoryId":"URL_DRILLDOWN"`)
	assert.Equal(t, DynamicActionCreatedEvent, created.GetType())
}
