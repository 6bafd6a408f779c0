package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

const ruleWidth = 48

// Console prints one line per check followed by a summary block.
//
//	composer.json present ... PASSED
//	coding standards ... FAILED
//	    exit status 1
type Console struct {
	w io.Writer

	pass, fail, skip, note, header lipgloss.Style
}

// NewConsole creates a console reporter. With color false no escape
// sequences are written, whatever the terminal supports.
func NewConsole(w io.Writer, color bool) *Console {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		w:      w,
		pass:   r.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		skip:   r.NewStyle().Foreground(lipgloss.Color("226")),
		note:   r.NewStyle().Foreground(lipgloss.Color("245")),
		header: r.NewStyle().Bold(true),
	}
}

// Label is the word printed for an outcome.
func Label(status gate.OutcomeStatus) string {
	switch status {
	case gate.OutcomePass:
		return "PASSED"
	case gate.OutcomeSkip:
		return "SKIPPED"
	default:
		return "FAILED"
	}
}

func (c *Console) CheckDone(run gate.CheckRun) {
	var label string
	switch run.Outcome.Status {
	case gate.OutcomePass:
		label = c.pass.Render(Label(run.Outcome.Status))
	case gate.OutcomeSkip:
		label = c.skip.Render(Label(run.Outcome.Status))
	default:
		label = c.fail.Render(Label(run.Outcome.Status))
	}

	line := fmt.Sprintf("%s ... %s", run.Name, label)
	if run.Final && run.Outcome.Status == gate.OutcomeFail && !run.Counted {
		line += " " + c.note.Render("(not enforced at this phase)")
	}
	fmt.Fprintln(c.w, line)

	if run.Outcome.Status != gate.OutcomePass && run.Outcome.Message != "" {
		for _, l := range strings.Split(run.Outcome.Message, "\n") {
			fmt.Fprintln(c.w, "    "+l)
		}
	}
}

func (c *Console) Finish(result *gate.PhaseResult) error {
	tally := result.Tally()
	state := c.pass.Render(string(result.Status.Status))
	if !result.Status.Passed() {
		state = c.fail.Render(string(result.Status.Status))
	}

	rule := strings.Repeat("=", ruleWidth)
	lines := []string{
		"",
		rule,
		c.header.Render("Quality gates:") + " " + state,
		fmt.Sprintf("Phase: %d", result.Status.Phase),
		fmt.Sprintf("Checks: %d passed, %d failed, %d skipped",
			tally[gate.OutcomePass], tally[gate.OutcomeFail], tally[gate.OutcomeSkip]),
		fmt.Sprintf("Errors: %d", result.Status.ErrorCount),
		rule,
	}
	_, err := fmt.Fprintln(c.w, strings.Join(lines, "\n"))
	return err
}
