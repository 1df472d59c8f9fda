package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/getset/internal/report"
)

// JSONRenderer emits structured run data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	File    string         `json:"file"`
	Steps   []StepReport   `json:"steps"`
	Summary report.Summary `json:"summary"`
}

// StepReport is one executed step in a Report.
type StepReport struct {
	Title      string        `json:"title"`
	Status     report.Status `json:"status"`
	DurationMS int64         `json:"duration_ms"`
	ExitCode   int           `json:"exit_code"`
}

// NewReport builds the JSON schema for a finished run of file.
func NewReport(file string, result report.RunResult) Report {
	steps := make([]StepReport, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		steps = append(steps, StepReport{
			Title:      o.Step.Title,
			Status:     o.Status,
			DurationMS: o.Duration.Milliseconds(),
			ExitCode:   o.ExitCode,
		})
	}
	return Report{File: file, Steps: steps, Summary: result.Summary()}
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	return j.Encode(report)
}

// Encode writes any value with the renderer's indentation.
func (j *JSONRenderer) Encode(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
