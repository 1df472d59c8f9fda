package report

import (
	"testing"
	"time"

	"github.com/bgricker/getset/internal/taskfile"
)

func TestAggregatorTotalsAndOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Step: taskfile.Step{Title: "first"}, Status: StatusPassed, Duration: 1500 * time.Millisecond})
	agg.Record(Outcome{Step: taskfile.Step{Title: "second"}, Status: StatusPassed, Duration: 250 * time.Millisecond})

	if got, want := agg.Total(), 1750*time.Millisecond; got != want {
		t.Errorf("Total() = %v, want %v", got, want)
	}

	entries := agg.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "first" || entries[1].Title != "second" {
		t.Fatalf("entries out of order: %+v", entries)
	}

	summary := agg.Summary()
	if summary.Passed != 2 || summary.Failed != 0 || summary.ExitCode != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.DurationMS != 1750 {
		t.Errorf("DurationMS = %d, want 1750", summary.DurationMS)
	}
}

func TestAggregatorFailure(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Step: taskfile.Step{Title: "Run tests"}, Status: StatusPassed, Duration: time.Second})
	agg.Record(Outcome{Step: taskfile.Step{Title: "Build"}, Status: StatusFailed, ExitCode: 1, Duration: time.Second})

	res := agg.Result(3 * time.Second)
	failed, ok := res.Failed()
	if !ok {
		t.Fatalf("expected failed outcome")
	}
	if failed.Step.Title != "Build" || failed.ExitCode != 1 {
		t.Fatalf("unexpected failed outcome: %+v", failed)
	}
	if res.Outcomes[1].DurationMS != 1000 {
		t.Errorf("DurationMS = %d, want 1000", res.Outcomes[1].DurationMS)
	}

	summary := res.Summary()
	if summary.TotalSteps != 2 || summary.Failed != 1 || summary.ExitCode != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if res.Total != 2*time.Second || res.Elapsed != 3*time.Second {
		t.Fatalf("unexpected durations: total=%v elapsed=%v", res.Total, res.Elapsed)
	}
}

func TestResultIsSnapshot(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Step: taskfile.Step{Title: "a"}, Status: StatusPassed})
	res := agg.Result(0)
	agg.Record(Outcome{Step: taskfile.Step{Title: "b"}, Status: StatusPassed})
	if len(res.Outcomes) != 1 {
		t.Fatalf("expected snapshot to be unaffected, got %d outcomes", len(res.Outcomes))
	}
}
