// Package identity collects the default metadata attached to telemetry events.
package identity

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Unknown is reported for any value that cannot be detected.
const Unknown = "unknown"

// Globals describes the invoking user.
type Globals struct {
	UserShell      string
	GitEmail       string
	GitHubUsername string
}

// Lookup reads a single git config key. It is replaced in tests.
type Lookup func(ctx context.Context, key string) (string, error)

// Detect builds Globals from the environment and git config. getenv is usually os.Getenv.
func Detect(getenv func(string) string, lookup Lookup) Globals {
	if lookup == nil {
		lookup = GitConfig
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return Globals{
		UserShell:      orUnknown(getenv("SHELL")),
		GitEmail:       lookupOrUnknown(ctx, lookup, "user.email"),
		GitHubUsername: lookupOrUnknown(ctx, lookup, "github.user"),
	}
}

// GitConfig returns `git config --get key`.
func GitConfig(ctx context.Context, key string) (string, error) {
	return runCommand(ctx, "git", "config", "--get", key)
}

func lookupOrUnknown(ctx context.Context, lookup Lookup, key string) string {
	v, err := lookup(ctx, key)
	if err != nil {
		return Unknown
	}
	return orUnknown(v)
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Unknown
	}
	return v
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
