// Package license models subscription levels and answers whether the
// current license unlocks a feature that needs a minimal level.
package license

import (
	"errors"
	"fmt"
	"strings"
)

// Level is a license tier. Higher values unlock more.
type Level int

const (
	Basic Level = iota
	Standard
	Gold
	Platinum
	Enterprise
	Trial
)

var ErrUnknownLevel = errors.New("unknown license level")

var levelNames = map[Level]string{
	Basic:      "basic",
	Standard:   "standard",
	Gold:       "gold",
	Platinum:   "platinum",
	Enterprise: "enterprise",
	Trial:      "trial",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses a level name, case insensitive. An empty name is Basic.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Basic, nil
	}

	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}

	return Basic, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// Checker reports whether the active license satisfies a minimal level.
type Checker interface {
	HasAtLeast(minimal Level) bool
}

// Static is a Checker for a fixed, always active license.
type Static struct {
	level Level
}

// NewStatic returns a Checker for level.
func NewStatic(level Level) *Static {
	return &Static{level: level}
}

func (s *Static) Level() Level {
	return s.level
}

func (s *Static) HasAtLeast(minimal Level) bool {
	return s.level >= minimal
}
