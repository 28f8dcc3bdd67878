// Package template renders the text templates used in drilldown
// configuration, such as URL drilldown targets.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"
)

var ErrEmptyResult = errors.New("template rendered an empty string")

// Render executes templateStr against data. Referencing a key missing from
// data is an error, and so is a result that is empty after trimming spaces.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())
	if result == "" {
		return "", ErrEmptyResult
	}

	return result, nil
}

// Parse compiles templateStr with the drilldown helper functions.
func Parse(templateStr string) (*template.Template, error) {
	tmpl, err := template.
		New("drilldown").
		Option("missingkey=error").
		Funcs(funcs).
		Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	return tmpl, nil
}

// NeedsTemplating reports whether input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"json": func(value any) (string, error) {
		raw, err := json.Marshal(value)
		if err != nil {
			return "", err
		}

		return string(raw), nil
	},
	"encodeURIComponent": func(value any) string {
		return url.QueryEscape(fmt.Sprint(value))
	},
	"lower": func(value any) string {
		return strings.ToLower(fmt.Sprint(value))
	},
	"upper": func(value any) string {
		return strings.ToUpper(fmt.Sprint(value))
	},
	"trim": func(value any) string {
		return strings.TrimSpace(fmt.Sprint(value))
	},
	"default": func(fallback, value any) any {
		if value == nil || value == "" {
			return fallback
		}

		return value
	},
}
