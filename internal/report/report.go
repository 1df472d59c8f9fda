package report

import (
	"time"

	"github.com/bgricker/getset/internal/taskfile"
)

// Status is the terminal state of an executed step.
type Status string

const (
	// StatusPassed marks a step whose command exited zero.
	StatusPassed Status = "passed"
	// StatusFailed marks a step whose command exited non-zero or could not start.
	StatusFailed Status = "failed"
)

// Outcome captures the result of a single executed step. It is never modified after Record.
type Outcome struct {
	Step       taskfile.Step `json:"step"`
	Status     Status        `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
	OutputTail string        `json:"output_tail,omitempty"`
}

// Succeeded reports whether the step passed.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusPassed
}

// Entry is one line of the timing report.
type Entry struct {
	Title    string
	Duration time.Duration
}

// Summary aggregates run results.
type Summary struct {
	TotalSteps int           `json:"total_steps"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
}

// Aggregator accumulates outcomes in execution order for a single run.
// It is driven from one goroutine and needs no locking.
type Aggregator struct {
	outcomes []Outcome
	total    time.Duration
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends an outcome.
func (a *Aggregator) Record(outcome Outcome) {
	outcome.DurationMS = outcome.Duration.Milliseconds()
	a.outcomes = append(a.outcomes, outcome)
	a.total += outcome.Duration
}

// Total is the sum of recorded step durations.
func (a *Aggregator) Total() time.Duration {
	return a.total
}

// Entries lists titles and durations in insertion order.
func (a *Aggregator) Entries() []Entry {
	out := make([]Entry, 0, len(a.outcomes))
	for _, o := range a.outcomes {
		out = append(out, Entry{Title: o.Step.Title, Duration: o.Duration})
	}
	return out
}

// Outcomes returns a copy of the recorded outcomes.
func (a *Aggregator) Outcomes() []Outcome {
	return append([]Outcome{}, a.outcomes...)
}

// Summary computes counts over the recorded outcomes.
func (a *Aggregator) Summary() Summary {
	s := Summary{TotalSteps: len(a.outcomes), Duration: a.total, DurationMS: a.total.Milliseconds()}
	for _, o := range a.outcomes {
		if o.Succeeded() {
			s.Passed++
			continue
		}
		s.Failed++
		s.ExitCode = 1
	}
	return s
}

// RunResult is the read-only view of a finished run.
type RunResult struct {
	Outcomes []Outcome
	Total    time.Duration
	// Elapsed is wall-clock time from the first step start to the end of the run.
	Elapsed time.Duration
}

// Result snapshots the aggregator.
func (a *Aggregator) Result(elapsed time.Duration) RunResult {
	return RunResult{Outcomes: a.Outcomes(), Total: a.total, Elapsed: elapsed}
}

// Entries lists titles and durations in execution order.
func (r RunResult) Entries() []Entry {
	out := make([]Entry, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, Entry{Title: o.Step.Title, Duration: o.Duration})
	}
	return out
}

// Summary computes counts over the outcomes.
func (r RunResult) Summary() Summary {
	agg := Aggregator{outcomes: r.Outcomes, total: r.Total}
	return agg.Summary()
}

// Failed returns the failing outcome, if any.
func (r RunResult) Failed() (Outcome, bool) {
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return o, true
		}
	}
	return Outcome{}, false
}
