package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bgricker/getset/internal/filter"
	"github.com/bgricker/getset/internal/report"
	"github.com/bgricker/getset/internal/taskfile"
	"github.com/bgricker/getset/internal/telemetry"
	"github.com/bgricker/getset/internal/terminal"
)

// Options configure how the runner executes steps.
type Options struct {
	Stdout  io.Writer
	Stdin   io.Reader
	Verbose bool
	// ShowDuration adds elapsed time to collapsed success lines.
	ShowDuration bool
	Filter       filter.Pattern
	Display      terminal.Display
	Telemetry    telemetry.Reporter
	Logger       logrus.FieldLogger
	TailLines    int
	Env          []string
	Now          func() time.Time
	// Shell overrides the platform command interpreter.
	Shell []string
}

// StepError reports the step that stopped a run.
type StepError struct {
	Title    string
	ExitCode int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed with exit code %d", e.Title, e.ExitCode)
}

// Runner executes task file steps sequentially, stopping at the first failure.
type Runner struct {
	opts Options
	exec *Executor
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Display == nil {
		opts.Display = terminal.NewPlain(opts.Stdout)
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	exe := NewExecutor()
	exe.Stdin = opts.Stdin
	exe.Env = opts.Env
	exe.TailLines = opts.TailLines
	exe.Now = opts.Now
	if len(opts.Shell) > 0 {
		exe.Shell = append([]string{}, opts.Shell...)
	}
	return &Runner{opts: opts, exec: exe}
}

// Run executes the steps selected by the filter in order. It returns a
// *StepError when a step fails and a wrapped context error when interrupted;
// the result holds every outcome recorded up to that point.
func (r *Runner) Run(ctx context.Context, steps []taskfile.Step) (report.RunResult, error) {
	selected, err := filter.Select(steps, r.opts.Filter)
	if err != nil {
		return report.RunResult{}, err
	}

	log := r.opts.Logger.WithField("steps", len(selected))
	log.Debug("run started")
	r.opts.Telemetry.Notify(telemetry.EventStart, nil)

	agg := report.NewAggregator()
	start := r.opts.Now()

	for i, step := range selected {
		stepLog := r.opts.Logger.WithFields(logrus.Fields{"step": step.Title, "index": i})
		if err := ctx.Err(); err != nil {
			return r.fail(agg, start, fmt.Errorf("run interrupted before %q: %w", step.Title, err))
		}

		stepLog.Debug("step started")
		detail := ""
		if r.opts.Verbose {
			detail = step.Command
		}
		w := r.opts.Display.BeginTransient(step.Title, detail)
		res := r.exec.Run(ctx, step.Command, r.opts.Verbose, w)

		outcome := report.Outcome{Step: step, Duration: res.Elapsed, ExitCode: res.ExitCode}
		if res.Succeeded() {
			outcome.Status = report.StatusPassed
			agg.Record(outcome)
			r.opts.Display.CollapseToSuccess(step.Title, res.Elapsed, r.opts.ShowDuration)
			stepLog.WithField("duration", res.Elapsed).Debug("step passed")
			continue
		}

		outcome.Status = report.StatusFailed
		outcome.OutputTail = res.Tail
		agg.Record(outcome)
		r.opts.Display.KeepVisibleAsFailure(step.Title, res.ExitCode, res.Elapsed)
		stepLog.WithError(res.Err).WithField("exit_code", res.ExitCode).Debug("step failed")

		if err := ctx.Err(); err != nil {
			return r.fail(agg, start, fmt.Errorf("run interrupted during %q: %w", step.Title, err))
		}
		return r.fail(agg, start, &StepError{Title: step.Title, ExitCode: res.ExitCode})
	}

	elapsed := r.opts.Now().Sub(start)
	r.opts.Telemetry.Notify(telemetry.EventComplete, map[string]string{
		telemetry.KeyDuration: telemetry.DurationValue(elapsed),
	})
	log.WithField("elapsed", elapsed).Debug("run complete")
	return agg.Result(elapsed), nil
}

func (r *Runner) fail(agg *report.Aggregator, start time.Time, err error) (report.RunResult, error) {
	elapsed := r.opts.Now().Sub(start)
	r.opts.Telemetry.Notify(telemetry.EventError, map[string]string{
		telemetry.KeyDuration:     telemetry.DurationValue(elapsed),
		telemetry.KeyErrorMessage: err.Error(),
	})
	r.opts.Logger.WithError(err).WithField("elapsed", elapsed).Debug("run failed")
	return agg.Result(elapsed), err
}
