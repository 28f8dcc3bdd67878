// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	logaction "github.com/dukex/uiactions/pkg/actions/log"
	"github.com/dukex/uiactions/pkg/actions/urldrilldown"
	"github.com/dukex/uiactions/pkg/license"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/registry"
	"github.com/dukex/uiactions/pkg/uiactions"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

// Built-in triggers registered at startup.
const (
	ValueClickTrigger  = "VALUE_CLICK_TRIGGER"
	SelectRangeTrigger = "SELECT_RANGE_TRIGGER"
	ContextMenuTrigger = "CONTEXT_MENU_TRIGGER"
	ApplyFilterTrigger = "APPLY_FILTER_TRIGGER"
)

// NativeTriggers returns the triggers every instance offers.
func NativeTriggers() []*uiactions.Trigger {
	return []*uiactions.Trigger{
		uiactions.NewTrigger(ValueClickTrigger, "Single click", "A single point clicked on a visualization"),
		uiactions.NewTrigger(SelectRangeTrigger, "Range selection", "A range of values selected on a visualization"),
		uiactions.NewTrigger(ContextMenuTrigger, "Context menu", "The panel context menu opened"),
		uiactions.NewTrigger(ApplyFilterTrigger, "Apply filter", "Filters applied to a place"),
	}
}

func RegisterNativeTriggers(service *uiactions.Service) error {
	for _, trigger := range NativeTriggers() {
		if err := service.RegisterTrigger(trigger); err != nil {
			return err
		}
	}

	return nil
}

// RegistryConfig configures the drilldown types offered by NewRegistry.
type RegistryConfig struct {
	Checker     license.Checker
	Navigator   protocol.Navigator
	AllowedURLs []string
	PluginsPath string
}

func registerDrilldownPlugins(reg *registry.Registry, log *slog.Logger, cfg RegistryConfig) error {
	if cfg.PluginsPath == "" {
		return nil
	}

	if _, err := os.Stat(cfg.PluginsPath); errors.Is(err, os.ErrNotExist) {
		log.Debug("Plugins path does not exist", "path", cfg.PluginsPath)

		return nil
	}

	drilldownPlugins, err := reg.LoadDrilldownPlugins(cfg.PluginsPath)
	if err != nil {
		return fmt.Errorf("failed to load drilldown plugins: %w", err)
	}

	for _, plugin := range drilldownPlugins {
		if err := reg.RegisterDrilldown(plugin, cfg.Checker); err != nil {
			return err
		}
	}

	return nil
}

func registerNativeDrilldowns(reg *registry.Registry, log *slog.Logger, cfg RegistryConfig) error {
	urlDrilldown := urldrilldown.New(log,
		urldrilldown.WithNavigator(cfg.Navigator),
		urldrilldown.WithAllowedURLs(cfg.AllowedURLs...),
	)

	logDrilldown := logaction.NewLogDrilldown(log,
		ValueClickTrigger, SelectRangeTrigger, ContextMenuTrigger, ApplyFilterTrigger,
	)

	return errors.Join(
		reg.RegisterDrilldown(urlDrilldown, cfg.Checker),
		reg.RegisterDrilldown(logDrilldown, cfg.Checker),
	)
}

// NewRegistry returns a registry holding the native drilldown types and
// those loaded from <PluginsPath>/drilldowns.
func NewRegistry(log *slog.Logger, cfg RegistryConfig) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := registerNativeDrilldowns(reg, log, cfg); err != nil {
		return nil, err
	}

	if err := registerDrilldownPlugins(reg, log, cfg); err != nil {
		return nil, err
	}

	return reg, nil
}
