package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bgricker/getset/internal/report"
	"github.com/bgricker/getset/internal/taskfile"
)

func TestPrettyRenderList(t *testing.T) {
	steps := []taskfile.Step{
		{Title: "Install gems", Command: "bundle install"},
		{Title: "Run tests", Command: "bundle exec rspec"},
	}

	buf := &bytes.Buffer{}
	renderer := NewPretty(buf)
	if err := renderer.RenderList(steps, false); err != nil {
		t.Fatalf("render list: %v", err)
	}
	if got := buf.String(); got != "1. Install gems\n2. Run tests\n" {
		t.Fatalf("unexpected list %q", got)
	}

	buf.Reset()
	if err := renderer.RenderList(steps[:1], true); err != nil {
		t.Fatalf("render list: %v", err)
	}
	if got := buf.String(); got != "1. Install gems\n   bundle install\n" {
		t.Fatalf("unexpected verbose list %q", got)
	}
}

func TestPrettyRenderMatches(t *testing.T) {
	buf := &bytes.Buffer{}
	renderer := NewPretty(buf)

	if err := renderer.RenderMatches("install", []taskfile.Step{{Title: "Install gems"}}); err != nil {
		t.Fatalf("render matches: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("single match should print nothing, got %q", buf.String())
	}

	steps := []taskfile.Step{{Title: "Install Ruby"}, {Title: "Install gems"}}
	if err := renderer.RenderMatches("install", steps); err != nil {
		t.Fatalf("render matches: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Found 2 steps matching 'install'") {
		t.Fatalf("expected match header, got %q", out)
	}
	if !strings.Contains(out, "  2. Install gems\n") {
		t.Fatalf("expected numbered match, got %q", out)
	}
}

func TestPrettyRenderResults(t *testing.T) {
	agg := report.NewAggregator()
	agg.Record(report.Outcome{Step: taskfile.Step{Title: "Compile"}, Status: report.StatusPassed, Duration: 1230 * time.Millisecond})
	agg.Record(report.Outcome{Step: taskfile.Step{Title: "Test"}, Status: report.StatusPassed, Duration: 2220 * time.Millisecond})
	result := agg.Result(3500 * time.Millisecond)

	buf := &bytes.Buffer{}
	renderer := NewPretty(buf)
	if err := renderer.RenderResults(result, false); err != nil {
		t.Fatalf("render results: %v", err)
	}
	if got := buf.String(); got != "\n🎯 All set! (3.50s)\n" {
		t.Fatalf("unexpected closing line %q", got)
	}

	buf.Reset()
	if err := renderer.RenderResults(result, true); err != nil {
		t.Fatalf("render results: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"📊 Report\n", "├──▶ 1.23s Compile\n", "├──▶ 2.22s Test\n", "└─▶ 3.45s Total\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report, got %q", want, out)
		}
	}
}

func TestSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0.00s",
		1234 * time.Millisecond: "1.23s",
		61 * time.Second:        "61.00s",
	}
	for in, want := range cases {
		if got := Seconds(in); got != want {
			t.Errorf("Seconds(%v) = %q, want %q", in, got, want)
		}
	}
}
