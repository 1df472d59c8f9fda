package taskfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format names a supported task file syntax.
type Format string

const (
	// FormatTOML is the default task file syntax.
	FormatTOML Format = "toml"
	// FormatYAML accepts the same document written as YAML.
	FormatYAML Format = "yaml"
)

// Step is a single titled shell command. Its identity is its position in Document.Steps.
type Step struct {
	Title   string `json:"title"`
	Command string `json:"command"`
}

// PlatformX holds the optional telemetry section of a task file.
type PlatformX struct {
	SecretKey      string `json:"-"`
	EventNamespace string `json:"event_namespace,omitempty"`
}

// Document is a parsed task file.
type Document struct {
	Path      string     `json:"path"`
	Steps     []Step     `json:"steps"`
	PlatformX *PlatformX `json:"platformx,omitempty"`
}

// FormatFor picks the syntax from the file extension. Unknown extensions are read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load reads and validates the task file at path.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("read task file %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f, FormatFor(path), path)
}

// Parse decodes a task file from r. displayPath is used in error messages and Document.Path.
func Parse(r io.Reader, format Format, displayPath string) (Document, error) {
	var doc fileDocument
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("parse task file %q: %w", displayPath, err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("parse task file %q: %w", displayPath, err)
		}
	default:
		return Document{}, fmt.Errorf("parse task file %q: unsupported format %q", displayPath, format)
	}

	out, err := doc.convert(displayPath)
	if err != nil {
		return Document{}, fmt.Errorf("parse task file %q: %w", displayPath, err)
	}
	return out, nil
}

type fileDocument struct {
	Commands  []commandDocument  `toml:"commands" yaml:"commands"`
	PlatformX *platformXDocument `toml:"platformx" yaml:"platformx"`
}

type commandDocument struct {
	Title   *string `toml:"title" yaml:"title"`
	Command *string `toml:"command" yaml:"command"`
}

type platformXDocument struct {
	SecretKey      *string `toml:"secret_key" yaml:"secret_key"`
	EventNamespace string  `toml:"event_namespace" yaml:"event_namespace"`
}

func (d fileDocument) convert(displayPath string) (Document, error) {
	if len(d.Commands) == 0 {
		return Document{}, errors.New("no commands defined")
	}

	out := Document{Path: displayPath, Steps: make([]Step, 0, len(d.Commands))}
	for idx, cmd := range d.Commands {
		if cmd.Title == nil || strings.TrimSpace(*cmd.Title) == "" {
			return Document{}, fmt.Errorf("command %d: missing title", idx+1)
		}
		if cmd.Command == nil || strings.TrimSpace(*cmd.Command) == "" {
			return Document{}, fmt.Errorf("command %d (%s): missing command", idx+1, *cmd.Title)
		}
		out.Steps = append(out.Steps, Step{Title: *cmd.Title, Command: *cmd.Command})
	}

	if d.PlatformX != nil {
		// An empty secret is accepted; only an absent one is rejected.
		if d.PlatformX.SecretKey == nil {
			return Document{}, errors.New("platformx: missing secret_key")
		}
		out.PlatformX = &PlatformX{
			SecretKey:      *d.PlatformX.SecretKey,
			EventNamespace: d.PlatformX.EventNamespace,
		}
	}

	return out, nil
}
