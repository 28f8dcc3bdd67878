package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu    sync.Mutex
	calls []models.ActionContext
	err   error
}

func (r *recordingExecutor) ExecuteTriggerActions(_ context.Context, triggerID string, actionCtx models.ActionContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, actionCtx)

	return r.err
}

func (r *recordingExecutor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected Schedule
		err      string
	}{
		{
			name:     "standard cron",
			value:    "VALUE_CLICK_TRIGGER@*/5 * * * *",
			expected: Schedule{TriggerID: "VALUE_CLICK_TRIGGER", Cron: "*/5 * * * *"},
		},
		{
			name:     "descriptor with spaces",
			value:    " REPORT_TRIGGER @ @every 1h ",
			expected: Schedule{TriggerID: "REPORT_TRIGGER", Cron: "@every 1h"},
		},
		{name: "missing separator", value: "VALUE_CLICK_TRIGGER", err: "must look like TRIGGER_ID@CRON"},
		{name: "missing trigger", value: "@* * * * *", err: ErrTriggerRequired.Error()},
		{name: "missing cron", value: "VALUE_CLICK_TRIGGER@", err: ErrCronRequired.Error()},
		{name: "invalid cron", value: "VALUE_CLICK_TRIGGER@invalid", err: "invalid cron expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := ParseSchedule(tt.value)
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, schedule)
		})
	}
}

func TestScheduler_Fire(t *testing.T) {
	executor := &recordingExecutor{}
	scheduler := NewScheduler(discardLogger(), executor)

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	scheduler.fire(t.Context(), Schedule{
		TriggerID: "REPORT_TRIGGER",
		Cron:      "0 9 * * *",
		Context:   models.ActionContext{"report": "daily"},
	}, at)

	require.Equal(t, 1, executor.count())
	assert.Equal(t, models.ActionContext{
		"report":     "daily",
		"trigger_id": "REPORT_TRIGGER",
		"schedule":   "0 9 * * *",
		"timestamp":  "2024-05-01T09:00:00Z",
	}, executor.calls[0])
}

func TestScheduler_FireToleratesErrors(t *testing.T) {
	for _, err := range []error{
		errors.New("boom"),
		&uiactions.RegistryError{Op: "ExecuteTriggerActions", Err: uiactions.ErrNoCompatibleActions},
	} {
		executor := &recordingExecutor{err: err}
		scheduler := NewScheduler(discardLogger(), executor)

		assert.NotPanics(t, func() {
			scheduler.fire(t.Context(), Schedule{TriggerID: "T", Cron: "@every 1s"}, time.Now())
		})
		assert.Equal(t, 1, executor.count())
	}
}

func TestScheduler_AddRejectsInvalid(t *testing.T) {
	scheduler := NewScheduler(discardLogger(), &recordingExecutor{})

	require.ErrorIs(t, scheduler.Add(Schedule{Cron: "@every 1s"}), ErrTriggerRequired)
	require.Error(t, scheduler.Add(Schedule{TriggerID: "T", Cron: "not a cron"}))
}

func TestScheduler_StartStop(t *testing.T) {
	executor := &recordingExecutor{}
	scheduler := NewScheduler(discardLogger(), executor)

	require.NoError(t, scheduler.Add(Schedule{TriggerID: "T", Cron: "@every 1s"}))
	require.NoError(t, scheduler.Start(t.Context()))
	require.NoError(t, scheduler.Start(t.Context()))

	assert.Eventually(t, func() bool {
		return executor.count() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, scheduler.Stop(t.Context()))
	require.NoError(t, scheduler.Stop(t.Context()))

	stopped := executor.count()

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, stopped, executor.count())
}

func TestScheduler_AddAfterStart(t *testing.T) {
	executor := &recordingExecutor{}
	scheduler := NewScheduler(discardLogger(), executor)

	require.NoError(t, scheduler.Start(t.Context()))
	defer func() { _ = scheduler.Stop(context.Background()) }()

	require.NoError(t, scheduler.Add(Schedule{TriggerID: "T", Cron: "@every 1s"}))

	assert.Eventually(t, func() bool {
		return executor.count() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}
