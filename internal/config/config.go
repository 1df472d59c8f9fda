package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the optional per-project settings file read from the working directory.
const FileName = ".getset.yml"

// Settings captures CLI options sourced from the settings file, environment, or flags.
type Settings struct {
	File     string `yaml:"file"`
	Verbose  bool   `yaml:"verbose"`
	Report   bool   `yaml:"report"`
	Step     string `yaml:"-"`
	Format   string `yaml:"format"`
	LogLevel string `yaml:"log_level"`
	Plain    bool   `yaml:"plain"`
	Color    bool   `yaml:"-"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// DefaultLogLevel keeps diagnostics quiet unless something goes wrong.
	DefaultLogLevel = "warn"
)

// Default returns the baseline settings used when nothing else specifies values.
func Default() Settings {
	return Settings{
		Format:   FormatPretty,
		LogLevel: DefaultLogLevel,
		Color:    true,
	}
}

// Load reads FileName from root when present and layers the environment on top.
// A missing file is ignored.
func Load(root string, getenv func(string) string) (Settings, error) {
	s := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("read settings %q: %w", path, err)
	default:
		var fileSettings Settings
		if err := yaml.Unmarshal(data, &fileSettings); err != nil {
			return s, fmt.Errorf("parse settings %q: %w", path, err)
		}
		s = merge(s, fileSettings)
	}

	ApplyEnv(&s, getenv)
	return s, nil
}

func merge(base, override Settings) Settings {
	out := base
	if override.File != "" {
		out.File = override.File
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.Report {
		out.Report = true
	}
	if override.Plain {
		out.Plain = true
	}
	return out
}

// ApplyEnv mutates s with GETSET_LOG_LEVEL, GETSET_PLAIN and NO_COLOR.
func ApplyEnv(s *Settings, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv("GETSET_LOG_LEVEL")); v != "" {
		s.LogLevel = v
	}
	if truthy(getenv("GETSET_PLAIN")) {
		s.Plain = true
	}
	// Any non-empty NO_COLOR disables colour.
	if getenv("NO_COLOR") != "" {
		s.Color = false
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Validate rejects settings the CLI cannot act on.
func (s Settings) Validate() error {
	switch strings.ToLower(s.Format) {
	case FormatPretty, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q", s.Format)
	}
}

// ApplyFlags mutates s by applying values from CLI flags when they are present.
func ApplyFlags(s *Settings, flags FlagValues) {
	if flags.File.Set {
		s.File = flags.File.Value
	}
	if flags.Verbose.Set {
		s.Verbose = flags.Verbose.Value
	}
	if flags.Report.Set {
		s.Report = flags.Report.Value
	}
	if flags.Step.Set {
		s.Step = flags.Step.Value
	}
	if flags.Format.Set {
		s.Format = flags.Format.Value
	}
	if flags.LogLevel.Set {
		s.LogLevel = flags.LogLevel.Value
	}
	if flags.Plain.Set {
		s.Plain = flags.Plain.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	File     StringFlag
	Verbose  BoolFlag
	Report   BoolFlag
	Step     StringFlag
	Format   StringFlag
	LogLevel StringFlag
	Plain    BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
