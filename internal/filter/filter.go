package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/getset/internal/taskfile"
)

// ErrNoMatchingSteps is returned by Select when an active pattern matches no step.
var ErrNoMatchingSteps = errors.New("no steps found matching")

// Pattern represents a compiled step filter supporting substring and regex matching.
// The zero Pattern matches every step.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms a raw filter string into a Pattern. A value wrapped in
// slashes is a regular expression; anything else is a substring. Both match
// case-insensitively.
func Compile(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pattern{}, nil
	}
	if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
		expr := raw[1 : len(raw)-1]
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile regexp %q: %w", raw, err)
		}
		return Pattern{raw: raw, regex: re}, nil
	}
	return Pattern{raw: raw, lower: strings.ToLower(raw)}, nil
}

// Active reports whether the pattern restricts anything.
func (p Pattern) Active() bool {
	return p.raw != ""
}

// String returns the pattern as supplied by the user.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the pattern matches the supplied title.
func (p Pattern) Match(s string) bool {
	if !p.Active() {
		return true
	}
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Select returns the steps whose titles match, in their original order.
func Select(steps []taskfile.Step, pattern Pattern) ([]taskfile.Step, error) {
	if !pattern.Active() {
		return append([]taskfile.Step{}, steps...), nil
	}
	result := make([]taskfile.Step, 0, len(steps))
	for _, step := range steps {
		if pattern.Match(step.Title) {
			result = append(result, step)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoMatchingSteps, pattern.raw)
	}
	return result, nil
}
