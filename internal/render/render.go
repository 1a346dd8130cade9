// Package render formats health and pipeline reports for the terminal.
package render

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/gitpulse/gitpulse/internal/health"
	"github.com/gitpulse/gitpulse/internal/pipeline"
	"github.com/gitpulse/gitpulse/internal/probe"
)

// Renderer writes styled report summaries. Styling is dropped when stdout is
// not a terminal or the caller disabled color.
type Renderer struct {
	passStyle lipgloss.Style
	failStyle lipgloss.Style
	warnStyle lipgloss.Style
	dimStyle  lipgloss.Style
	color     bool
}

// New builds a Renderer. noColor forces plain output regardless of TTY.
func New(noColor bool) *Renderer {
	color := !noColor && isatty.IsTerminal(os.Stdout.Fd())
	return &Renderer{
		passStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warnStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dimStyle:  lipgloss.NewStyle().Faint(true),
		color:     color,
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// HealthReport prints every probe's last-known result and the summary line.
func (r *Renderer) HealthReport(report *health.Report, attempts int) string {
	var b strings.Builder
	for _, pr := range report.Results {
		line := fmt.Sprintf("%s %-24s %s", r.markerFor(pr), pr.Name, pr.Reason)
		if pr.Latency > 0 {
			line += r.style(r.dimStyle, fmt.Sprintf(" (%s)", pr.Latency.Round(time.Millisecond)))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(r.summaryLine(report, attempts))
	return b.String()
}

func (r *Renderer) markerFor(pr health.ProbeResult) string {
	switch {
	case pr.Passed():
		return r.style(r.passStyle, "✓")
	case pr.Skipped || pr.Outcome == probe.Indeterminate:
		return r.style(r.warnStyle, "?")
	default:
		return r.style(r.failStyle, "✗")
	}
}

func (r *Renderer) summaryLine(report *health.Report, attempts int) string {
	word := strings.ToUpper(string(report.Status))
	var styled string
	switch report.Status {
	case health.StatusHealthy:
		styled = r.style(r.passStyle, word)
	case health.StatusWarning:
		styled = r.style(r.warnStyle, word)
	default:
		styled = r.style(r.failStyle, word)
	}
	return fmt.Sprintf("overall: %s (%d/%d checks passed, %d attempt(s))\n", styled, report.Pass, report.Total, attempts)
}

// PipelineReport prints the latest pipeline, its jobs, and the ranked hints.
func (r *Renderer) PipelineReport(report *pipeline.InspectReport) string {
	var b strings.Builder

	if !report.Retrieved {
		b.WriteString(r.style(r.failStyle, "could not retrieve pipeline data"))
		if report.Err != nil {
			b.WriteString(": " + report.Err.Error())
		}
		b.WriteString("\n")
		return b.String()
	}
	if report.Pipeline == nil {
		b.WriteString("project has no pipelines\n")
		return b.String()
	}

	p := report.Pipeline
	b.WriteString(fmt.Sprintf("pipeline #%d  %s  ref=%s sha=%.8s created=%s\n",
		p.ID, p.Status, p.Ref, p.SHA, p.CreatedAt.Format("2006-01-02 15:04:05")))

	for _, job := range p.Jobs {
		marker := r.jobMarker(job.Status)
		line := fmt.Sprintf("%s [%s] %s: %s", marker, job.Stage, job.Name, job.Status)
		if job.FailureReason != "" {
			line += " (" + job.FailureReason + ")"
		}
		b.WriteString(line + "\n")
	}

	if len(report.Hints) > 0 {
		b.WriteString("hints:\n")
		for i, h := range report.Hints {
			b.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, h.JobName, h.Message))
		}
	}
	return b.String()
}

func (r *Renderer) jobMarker(status pipeline.JobStatus) string {
	switch status {
	case pipeline.JobSuccess:
		return r.style(r.passStyle, "✓")
	case pipeline.JobFailed, pipeline.JobStuck:
		return r.style(r.failStyle, "✗")
	case pipeline.JobRunning:
		return r.style(r.warnStyle, "▶")
	default:
		return r.style(r.dimStyle, "·")
	}
}
