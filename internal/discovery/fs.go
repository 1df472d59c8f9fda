package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoTaskFile indicates that no task file was found in the search directory.
var ErrNoTaskFile = errors.New("no task file found")

// DefaultNames lists the task file names tried, in order, when none is given explicitly.
var DefaultNames = []string{"getset.toml", "getset.yaml", "getset.yml"}

// Location identifies a task file on disk.
type Location struct {
	// Path is usable with os.Open from any working directory.
	Path string
	// Display is Path relative to the search root when it lives beneath it.
	Display string
}

// TaskFile returns the task file to run. An explicit path is validated and
// resolved against root. Otherwise DefaultNames are tried in order.
func TaskFile(root string, explicit string) (Location, error) {
	if strings.TrimSpace(explicit) != "" {
		return resolveExplicit(root, explicit)
	}

	for _, name := range DefaultNames {
		candidate := filepath.Join(root, name)
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Location{}, fmt.Errorf("stat %q: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		return Location{Path: candidate, Display: mustRelOrClean(root, candidate)}, nil
	}
	return Location{}, ErrNoTaskFile
}

func resolveExplicit(root, input string) (Location, error) {
	cleaned := input
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(root, cleaned)
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, fmt.Errorf("task file %q not found: %w", input, err)
		}
		return Location{}, fmt.Errorf("stat %q: %w", input, err)
	}
	if info.IsDir() {
		return Location{}, fmt.Errorf("task file %q is a directory", input)
	}
	return Location{Path: cleaned, Display: mustRelOrClean(root, cleaned)}, nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
