package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bgricker/getset/internal/report"
	"github.com/bgricker/getset/internal/taskfile"
)

// PrettyRenderer renders run results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList prints the numbered steps of a task file. verbose adds each command beneath its title.
func (p *PrettyRenderer) RenderList(steps []taskfile.Step, verbose bool) error {
	for i, step := range steps {
		if _, err := fmt.Fprintf(p.out, "%d. %s\n", i+1, step.Title); err != nil {
			return err
		}
		if !verbose {
			continue
		}
		if _, err := fmt.Fprintln(p.out, indent(step.Command, "   ")); err != nil {
			return err
		}
	}
	return nil
}

// RenderMatches announces which steps a filter selected when it selected more than one.
func (p *PrettyRenderer) RenderMatches(filter string, steps []taskfile.Step) error {
	if len(steps) < 2 {
		return nil
	}
	if _, err := fmt.Fprintf(p.out, "Info: Found %d steps matching '%s':\n", len(steps), filter); err != nil {
		return err
	}
	for i, step := range steps {
		if _, err := fmt.Fprintf(p.out, "  %d. %s\n", i+1, step.Title); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.out)
	return err
}

// RenderResults prints the closing line of a successful run and, when showReport
// is set, the timing tree.
func (p *PrettyRenderer) RenderResults(result report.RunResult, showReport bool) error {
	if _, err := fmt.Fprintf(p.out, "\n🎯 All set! (%s)\n", Seconds(result.Elapsed)); err != nil {
		return err
	}
	if !showReport {
		return nil
	}
	return p.RenderReport(result.Entries(), result.Total)
}

// RenderReport prints the timing tree for entries with total as its last row.
func (p *PrettyRenderer) RenderReport(entries []report.Entry, total time.Duration) error {
	var b strings.Builder
	b.WriteString("\n📊 Report\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "├──▶ %s %s\n", Seconds(e.Duration), e.Title)
	}
	fmt.Fprintf(&b, "└─▶ %s Total\n", Seconds(total))
	_, err := io.WriteString(p.out, b.String())
	return err
}

// Seconds formats d with two decimal places, e.g. "1.23s".
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}
