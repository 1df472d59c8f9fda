package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bgricker/getset/internal/config"
	"github.com/bgricker/getset/internal/filter"
	"github.com/bgricker/getset/internal/identity"
	"github.com/bgricker/getset/internal/output"
	"github.com/bgricker/getset/internal/runner"
	"github.com/bgricker/getset/internal/taskfile"
	"github.com/bgricker/getset/internal/telemetry"
	"github.com/bgricker/getset/internal/terminal"
)

// telemetryCloseTimeout caps how long a finished run waits for queued events.
const telemetryCloseTimeout = 2 * time.Second

// endpointEnv overrides the telemetry endpoint, mainly for local testing.
const endpointEnv = "GETSET_PLATFORMX_ENDPOINT"

func runTasks(cmd *cobra.Command, args []string) error {
	settings, root, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), settings.LogLevel)

	doc, err := loadTaskFile(root, settings)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"file": doc.Path, "steps": len(doc.Steps)}).Debug("task file loaded")

	pattern, err := filter.Compile(settings.Step)
	if err != nil {
		return err
	}
	selected, err := filter.Select(doc.Steps, pattern)
	if err != nil {
		return err
	}

	jsonOutput := strings.EqualFold(settings.Format, config.FormatJSON)
	// JSON keeps stdout machine readable; progress goes to stderr.
	progress := cmd.OutOrStdout()
	if jsonOutput {
		progress = cmd.ErrOrStderr()
	}
	if pattern.Active() {
		if err := output.NewPretty(progress).RenderMatches(pattern.String(), selected); err != nil {
			return err
		}
	}

	reporter := newReporter(doc, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(runner.Options{
		Stdout:       progress,
		Stdin:        cmd.InOrStdin(),
		Verbose:      settings.Verbose,
		ShowDuration: settings.Report,
		Filter:       pattern,
		Display:      newDisplay(progress, settings),
		Telemetry:    reporter,
		Logger:       logger,
	})
	result, runErr := r.Run(ctx, doc.Steps)

	closeReporter(reporter, logger)

	if jsonOutput {
		if err := output.NewJSON(cmd.OutOrStdout()).Render(output.NewReport(doc.Path, result)); err != nil {
			return err
		}
		return runErr
	}
	if runErr != nil {
		return runErr
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderResults(result, settings.Report)
}

func newReporter(doc taskfile.Document, logger *log.Logger) telemetry.Reporter {
	if doc.PlatformX == nil {
		return telemetry.Noop{}
	}
	cfg := telemetry.NewConfig(doc.PlatformX.SecretKey, doc.PlatformX.EventNamespace)
	if endpoint := os.Getenv(endpointEnv); endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	return telemetry.New(cfg, telemetry.Options{
		Globals: identity.Detect(os.Getenv, identity.GitConfig),
		Logger:  logger,
	})
}

func closeReporter(reporter telemetry.Reporter, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryCloseTimeout)
	defer cancel()
	if err := reporter.Close(ctx); err != nil {
		logger.WithError(err).Debug("telemetry still in flight at exit")
	}
}

func newDisplay(out io.Writer, settings config.Settings) terminal.Display {
	if f, ok := out.(*os.File); ok {
		return terminal.Detect(f, settings.Plain, settings.Color)
	}
	return terminal.NewPlain(out)
}
