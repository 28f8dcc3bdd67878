// Package log_action is a drilldown type that writes the fired trigger's
// context to the log. It is useful to check which triggers fire and with
// what data.
package log_action

import (
	"context"
	"log/slog"

	"github.com/dukex/uiactions/pkg/log"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
)

const ID = "LOG"

type LogDrilldown struct {
	logger   *slog.Logger
	triggers []string
}

var _ protocol.Drilldown = (*LogDrilldown)(nil)

// NewLogDrilldown creates the drilldown type, bindable to triggers.
func NewLogDrilldown(logger *slog.Logger, triggers ...string) *LogDrilldown {
	return &LogDrilldown{
		logger:   logger.With("action_type", "log"),
		triggers: triggers,
	}
}

func (*LogDrilldown) ID() string             { return ID }
func (*LogDrilldown) Order() int             { return 1 }
func (*LogDrilldown) DisplayName() string    { return "Write to log" }
func (*LogDrilldown) IconType() string       { return "document" }
func (*LogDrilldown) MinimalLicense() string { return "" }

func (d *LogDrilldown) SupportedTriggers() []string {
	return d.triggers
}

func (*LogDrilldown) Schema() map[string]any {
	return map[string]any{
		"type":  "object",
		"title": "Log Configuration",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message written with the trigger context",
			},
			"level": map[string]any{
				"type":    "string",
				"enum":    []string{"debug", "info", "warn", "error"},
				"default": "info",
			},
		},
	}
}

func (*LogDrilldown) CreateConfig() map[string]any {
	return map[string]any{
		"message": "",
		"level":   "info",
	}
}

func (*LogDrilldown) IsConfigValid(map[string]any, models.FactoryContext) bool {
	return true
}

func (*LogDrilldown) IsCompatible(context.Context, map[string]any, models.ActionContext) (bool, error) {
	return true, nil
}

func (*LogDrilldown) GetHref(context.Context, map[string]any, models.ActionContext) (string, error) {
	return "", nil
}

func (d *LogDrilldown) Execute(ctx context.Context, config map[string]any, actionCtx models.ActionContext) error {
	message, _ := config["message"].(string)
	if message == "" {
		message = "Trigger fired"
	}

	level, _ := config["level"].(string)

	d.logger.Log(ctx, log.ParseLevel(level), message, "context", map[string]any(actionCtx))

	return nil
}
