// Package urldrilldown is a drilldown type that navigates to a URL built
// from a template over the fired trigger's context.
package urldrilldown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
	"github.com/dukex/uiactions/pkg/template"
)

const (
	ID = "URL_DRILLDOWN"

	ValueClickTrigger  = "VALUE_CLICK_TRIGGER"
	SelectRangeTrigger = "SELECT_RANGE_TRIGGER"
	ContextMenuTrigger = "CONTEXT_MENU_TRIGGER"
)

var (
	ErrNoNavigator     = errors.New("url drilldown has no navigator")
	ErrURLNotAllowed   = errors.New("url is not allowed")
	ErrTemplateMissing = errors.New("url template is missing")
)

type Option func(*Drilldown)

// WithNavigator sets where Execute navigates to.
func WithNavigator(navigator protocol.Navigator) Option {
	return func(d *Drilldown) {
		d.navigator = navigator
	}
}

// WithAllowedURLs restricts rendered URLs to the given prefixes. With no
// prefixes every http and https URL is allowed.
func WithAllowedURLs(prefixes ...string) Option {
	return func(d *Drilldown) {
		d.allowed = append(d.allowed, prefixes...)
	}
}

// WithGlobals exposes values to templates under .globals.
func WithGlobals(globals map[string]any) Option {
	return func(d *Drilldown) {
		d.globals = globals
	}
}

type Drilldown struct {
	logger    *slog.Logger
	navigator protocol.Navigator
	allowed   []string
	globals   map[string]any
}

var _ protocol.Drilldown = (*Drilldown)(nil)

func New(logger *slog.Logger, opts ...Option) *Drilldown {
	d := &Drilldown{
		logger:  logger.With("module", "url_drilldown"),
		globals: map[string]any{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (*Drilldown) ID() string             { return ID }
func (*Drilldown) Order() int             { return 8 }
func (*Drilldown) DisplayName() string    { return "Go to URL" }
func (*Drilldown) IconType() string       { return "link" }
func (*Drilldown) MinimalLicense() string { return "gold" }

func (*Drilldown) SupportedTriggers() []string {
	return []string{ValueClickTrigger, SelectRangeTrigger, ContextMenuTrigger}
}

func (*Drilldown) Schema() map[string]any {
	return map[string]any{
		"type":  "object",
		"title": "URL Drilldown Configuration",
		"properties": map[string]any{
			"url": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"template": map[string]any{
						"type":        "string",
						"description": "Go template rendered against .event, .place and .globals",
						"examples": []string{
							"https://example.com/search?q={{ encodeURIComponent .event.value }}",
						},
					},
				},
				"required": []string{"template"},
			},
			"openInNewTab": map[string]any{
				"type":    "boolean",
				"default": false,
			},
		},
		"required": []string{"url"},
	}
}

func (*Drilldown) CreateConfig() map[string]any {
	return map[string]any{
		"url":          map[string]any{"template": ""},
		"openInNewTab": false,
	}
}

// IsConfigValid accepts a config whose template parses.
func (*Drilldown) IsConfigValid(config map[string]any, _ models.FactoryContext) bool {
	tmpl, err := templateOf(config)
	if err != nil {
		return false
	}

	_, err = template.Parse(tmpl)

	return err == nil
}

// IsCompatible reports whether the template renders to an allowed URL for
// actionCtx. Rendering failures make the drilldown incompatible.
func (d *Drilldown) IsCompatible(ctx context.Context, config map[string]any, actionCtx models.ActionContext) (bool, error) {
	_, err := d.render(config, actionCtx)
	if err != nil {
		d.logger.DebugContext(ctx, "URL drilldown not compatible", "error", err)

		return false, nil
	}

	return true, nil
}

func (d *Drilldown) GetHref(_ context.Context, config map[string]any, actionCtx models.ActionContext) (string, error) {
	return d.render(config, actionCtx)
}

func (d *Drilldown) Execute(ctx context.Context, config map[string]any, actionCtx models.ActionContext) error {
	href, err := d.render(config, actionCtx)
	if err != nil {
		return err
	}

	if d.navigator == nil {
		return ErrNoNavigator
	}

	return d.navigator.Navigate(ctx, href)
}

func (d *Drilldown) render(config map[string]any, actionCtx models.ActionContext) (string, error) {
	tmpl, err := templateOf(config)
	if err != nil {
		return "", err
	}

	place, _ := actionCtx["place"].(map[string]any)
	if place == nil {
		place = map[string]any{}
	}

	href, err := template.Render(tmpl, map[string]any{
		"event":   map[string]any(actionCtx),
		"place":   place,
		"globals": d.globals,
	})
	if err != nil {
		return "", err
	}

	err = d.validate(href)
	if err != nil {
		return "", err
	}

	return href, nil
}

func (d *Drilldown) validate(href string) error {
	parsed, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrURLNotAllowed, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrURLNotAllowed, parsed.Scheme)
	}

	if len(d.allowed) == 0 {
		return nil
	}

	allowed := slices.ContainsFunc(d.allowed, func(prefix string) bool {
		return strings.HasPrefix(href, prefix)
	})
	if !allowed {
		return fmt.Errorf("%w: %s", ErrURLNotAllowed, href)
	}

	return nil
}

func templateOf(config map[string]any) (string, error) {
	urlConfig, _ := config["url"].(map[string]any)

	tmpl, _ := urlConfig["template"].(string)
	if strings.TrimSpace(tmpl) == "" {
		return "", ErrTemplateMissing
	}

	return tmpl, nil
}
