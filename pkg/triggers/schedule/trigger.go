// Package schedule fires UI triggers on cron schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/robfig/cron/v3"
)

var (
	ErrTriggerRequired = errors.New("schedule trigger ID is required")
	ErrCronRequired    = errors.New("schedule cron expression is required")
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Executor runs the actions attached to a trigger.
type Executor interface {
	ExecuteTriggerActions(ctx context.Context, triggerID string, actionCtx models.ActionContext) error
}

// Schedule fires TriggerID with Context every time Cron matches.
type Schedule struct {
	TriggerID string
	Cron      string
	Context   models.ActionContext
}

func (s Schedule) Validate() error {
	if s.TriggerID == "" {
		return ErrTriggerRequired
	}

	if s.Cron == "" {
		return ErrCronRequired
	}

	if _, err := parser.Parse(s.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

// ParseSchedule reads a schedule written as TRIGGER_ID@CRON.
func ParseSchedule(value string) (Schedule, error) {
	triggerID, expr, found := strings.Cut(value, "@")
	if !found {
		return Schedule{}, fmt.Errorf("schedule %q must look like TRIGGER_ID@CRON", value)
	}

	schedule := Schedule{
		TriggerID: strings.TrimSpace(triggerID),
		Cron:      strings.TrimSpace(expr),
	}

	if err := schedule.Validate(); err != nil {
		return Schedule{}, err
	}

	return schedule, nil
}

type Scheduler struct {
	logger   *slog.Logger
	executor Executor

	mu        sync.Mutex
	cron      *cron.Cron
	schedules []Schedule
	ctx       context.Context
}

func NewScheduler(logger *slog.Logger, executor Executor) *Scheduler {
	return &Scheduler{
		logger:   logger.With("module", "schedule_trigger"),
		executor: executor,
	}
}

// Add registers schedule. Schedules added after Start begin right away.
func (s *Scheduler) Add(schedule Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules = append(s.schedules, schedule)

	if s.cron != nil {
		return s.addJob(schedule)
	}

	return nil
}

// Start runs every schedule until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	s.ctx = ctx
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		),
	)

	for _, schedule := range s.schedules {
		if err := s.addJob(schedule); err != nil {
			s.cron = nil

			return err
		}
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Started scheduler", "schedules", len(s.schedules))

	return nil
}

// Stop stops firing and waits for running executions to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Stopped scheduler")

	return nil
}

func (s *Scheduler) addJob(schedule Schedule) error {
	_, err := s.cron.AddFunc(schedule.Cron, func() {
		s.fire(s.ctx, schedule, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job for trigger %s: %w", schedule.TriggerID, err)
	}

	return nil
}

func (s *Scheduler) fire(ctx context.Context, schedule Schedule, at time.Time) {
	actionCtx := models.ActionContext{}
	maps.Copy(actionCtx, schedule.Context)
	actionCtx["trigger_id"] = schedule.TriggerID
	actionCtx["schedule"] = schedule.Cron
	actionCtx["timestamp"] = at.UTC().Format(time.RFC3339)

	logger := s.logger.With("trigger_id", schedule.TriggerID)

	err := s.executor.ExecuteTriggerActions(ctx, schedule.TriggerID, actionCtx)

	switch {
	case err == nil:
		logger.DebugContext(ctx, "Scheduled trigger executed")
	case uiactions.IsNoCompatibleActions(err):
		logger.DebugContext(ctx, "Scheduled trigger has no compatible actions")
	default:
		logger.ErrorContext(ctx, "Error executing scheduled trigger", "error", err)
	}
}
