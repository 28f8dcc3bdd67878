package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/uiactions/pkg/cmd"
	"github.com/dukex/uiactions/pkg/dynamicactions"
	"github.com/dukex/uiactions/pkg/license"
	"github.com/dukex/uiactions/pkg/log"
	"github.com/dukex/uiactions/pkg/metrics"
	"github.com/dukex/uiactions/pkg/navigation"
	"github.com/dukex/uiactions/pkg/notifications"
	"github.com/dukex/uiactions/pkg/otelhelper"
	"github.com/dukex/uiactions/pkg/overlays"
	"github.com/dukex/uiactions/pkg/triggers/schedule"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/dukex/uiactions/pkg/web"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Config struct {
	Port         int
	DatabaseURL  string
	KVURL        string
	EventBus     string
	KafkaBrokers []string
	License      string
	Schedules    []string
	AllowedURLs  []string
	PluginsPath  string
	MaxOpenMenus int
	OTel         bool
}

func run(ctx context.Context, cfg Config) error {
	logger := log.WithModule("uiactions")
	instanceID := uuid.NewString()

	logger.InfoContext(ctx, "Initializing UI actions", "instance_id", instanceID)

	level, err := license.ParseLevel(cfg.License)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	navigator := navigation.NewNavigator(logger)
	menus := overlays.NewStore(logger, overlays.WithCapacity(cfg.MaxOpenMenus))

	opts := []uiactions.Option{
		uiactions.WithNavigator(navigator),
		uiactions.WithOverlay(menus),
		uiactions.WithMetrics(collector),
	}

	if cfg.OTel {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "uiactions")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		opts = append(opts, uiactions.WithTracer(tracer))
	}

	service := uiactions.NewService(logger, opts...)
	if err := cmd.RegisterNativeTriggers(service); err != nil {
		return err
	}

	factories, err := cmd.NewRegistry(logger, cmd.RegistryConfig{
		Checker:     license.NewStatic(level),
		Navigator:   navigator,
		AllowedURLs: cfg.AllowedURLs,
		PluginsPath: cfg.PluginsPath,
	})
	if err != nil {
		return err
	}

	events, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	defer func() {
		if err := events.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	kv, err := cmd.NewKeyValueStorage(ctx, logger, cfg.KVURL)
	if err != nil {
		return err
	}

	defer func() {
		if err := kv.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close key/value storage", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(cfg.EventBus, logger, cfg.KafkaBrokers, instanceID)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	manager := dynamicactions.NewManager(logger, events, service, factories,
		dynamicactions.WithEventBus(eventBus),
		dynamicactions.WithInstanceID(instanceID),
		dynamicactions.WithMetrics(collector),
	)

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dynamic action manager: %w", err)
	}
	defer manager.Stop(context.WithoutCancel(ctx))

	scheduler, err := newScheduler(logger, service, cfg.Schedules)
	if err != nil {
		return err
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if err := scheduler.Stop(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
		}
	}()

	api := NewAPI(logger, web.Deps{
		Logger:    logger,
		Service:   service,
		Overlays:  menus,
		Manager:   manager,
		Factories: factories,
		Toasts:    notifications.NewToasts(logger, notifications.DefaultCapacity),
		Storage:   kv,
		Checks: map[string]web.HealthChecker{
			"event_storage": events,
			"kv_storage":    kv,
		},
		Gatherer: reg,
	})

	return api.Start(ctx, cfg.Port)
}

func newScheduler(logger *slog.Logger, service *uiactions.Service, specs []string) (*schedule.Scheduler, error) {
	scheduler := schedule.NewScheduler(logger, service)

	var errs []error

	for _, spec := range specs {
		s, err := schedule.ParseSchedule(spec)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if !service.HasTrigger(s.TriggerID) {
			errs = append(errs, fmt.Errorf("schedule %q: unknown trigger %s", spec, s.TriggerID))

			continue
		}

		if err := scheduler.Add(s); err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", spec, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return scheduler, nil
}
