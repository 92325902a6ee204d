// Package status carries per-step outcomes and prints them as styled lines.
package status

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// State is the result class of one step.
type State string

const (
	OK      State = "ok"
	Empty   State = "empty"
	Skipped State = "skipped"
	Failed  State = "failed"
)

// Outcome is what one pipeline step produced. Artifact is the file written, if any.
type Outcome struct {
	Step     string `json:"step"`
	State    State  `json:"state"`
	Reason   string `json:"reason,omitempty"`
	Artifact string `json:"artifact,omitempty"`
}

func Done(step, artifact string) Outcome {
	return Outcome{Step: step, State: OK, Artifact: artifact}
}

func Skip(step, format string, args ...any) Outcome {
	return Outcome{Step: step, State: Skipped, Reason: fmt.Sprintf(format, args...)}
}

func Fail(step string, err error) Outcome {
	return Outcome{Step: step, State: Failed, Reason: err.Error()}
}

func Nothing(step, format string, args ...any) Outcome {
	return Outcome{Step: step, State: Empty, Reason: fmt.Sprintf(format, args...)}
}

// String renders the outcome without styling.
func (o Outcome) String() string {
	s := fmt.Sprintf("%s: %s", o.Step, o.State)
	if o.Artifact != "" {
		s += " → " + o.Artifact
	}
	if o.Reason != "" {
		s += " (" + o.Reason + ")"
	}
	return s
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4757")).Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C42"))
)

// Printer writes status lines. A quiet printer only writes errors.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

// NewPrinter prints to stdout and stderr.
func NewPrinter(quiet bool) *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Quiet: quiet}
}

func (p *Printer) line(w io.Writer, style lipgloss.Style, mark, format string, args ...any) {
	if p == nil || w == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(mark), fmt.Sprintf(format, args...))
}

func (p *Printer) Heading(format string, args ...any) {
	if p == nil || p.Quiet {
		return
	}
	fmt.Fprintln(p.Out, headStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Success(format string, args ...any) {
	if p == nil || p.Quiet {
		return
	}
	p.line(p.Out, okStyle, "✓", format, args...)
}

func (p *Printer) Info(format string, args ...any) {
	if p == nil || p.Quiet {
		return
	}
	p.line(p.Out, infoStyle, "•", format, args...)
}

func (p *Printer) Warn(format string, args ...any) {
	if p == nil || p.Quiet {
		return
	}
	p.line(p.Out, warnStyle, "⚠", format, args...)
}

// Error is printed even in quiet mode.
func (p *Printer) Error(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.Err, errStyle, "✗", format, args...)
}

// Report prints o with the mark matching its state.
func (p *Printer) Report(o Outcome) {
	switch o.State {
	case OK:
		if o.Artifact != "" {
			p.Success("%s → %s", o.Step, o.Artifact)
		} else {
			p.Success("%s", o.Step)
		}
	case Failed:
		p.Error("%s failed: %s", o.Step, o.Reason)
	default:
		p.Warn("%s %s: %s", o.Step, o.State, o.Reason)
	}
}
