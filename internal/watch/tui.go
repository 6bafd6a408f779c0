package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/report"
)

// maxChangedShown caps the changed files listed in the header.
const maxChangedShown = 5

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)
)

// startedMsg and finishedMsg carry Handler calls into the program.
type startedMsg struct{ changed []string }

type finishedMsg struct{ ev Event }

// ProgramHandler forwards watcher callbacks to a running tea.Program.
type ProgramHandler struct {
	Program *tea.Program
}

func (h ProgramHandler) Started(changed []string) { h.Program.Send(startedMsg{changed: changed}) }
func (h ProgramHandler) Finished(ev Event)        { h.Program.Send(finishedMsg{ev: ev}) }

// Model is the watch-mode dashboard.
type Model struct {
	phase    int
	spinner  spinner.Model
	running  bool
	changed  []string
	last     *gate.PhaseResult
	err      error
	runs     int
	lastRun  time.Time
	quitting bool
	now      func() time.Time
}

// NewModel creates the dashboard for phase.
func NewModel(phase int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{phase: phase, spinner: s, now: time.Now}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case startedMsg:
		m.running = true
		m.changed = msg.changed
		return m, m.spinner.Tick

	case finishedMsg:
		m.running = false
		m.runs++
		m.lastRun = m.now()
		m.err = msg.ev.Err
		if msg.ev.Result != nil {
			m.last = msg.ev.Result
		}
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("quality gates · phase %d", m.phase)))
	b.WriteString("\n\n")

	if m.running {
		b.WriteString(m.spinner.View() + " evaluating")
		if len(m.changed) > 0 {
			b.WriteString(dimStyle.Render(" (" + summarizeChanged(m.changed) + ")"))
		}
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(failStyle.Render("error: ") + m.err.Error() + "\n")
	}

	if m.last != nil {
		for _, run := range m.last.Runs {
			b.WriteString(renderRun(run) + "\n")
		}
		b.WriteString("\n")
		state := passStyle.Render(string(m.last.Status.Status))
		if !m.last.Status.Passed() {
			state = failStyle.Render(string(m.last.Status.Status))
		}
		fmt.Fprintf(&b, "%s  errors: %d  runs: %d", state, m.last.Status.ErrorCount, m.runs)
		if !m.lastRun.IsZero() {
			b.WriteString(dimStyle.Render("  last: " + m.lastRun.Format("15:04:05")))
		}
		b.WriteString("\n")
	} else if !m.running && m.err == nil {
		b.WriteString(dimStyle.Render("waiting for first evaluation") + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("[q] quit"))
	return containerStyle.Render(b.String())
}

func renderRun(run gate.CheckRun) string {
	label := fmt.Sprintf("%-7s", report.Label(run.Outcome.Status))
	switch run.Outcome.Status {
	case gate.OutcomePass:
		label = passStyle.Render(label)
	case gate.OutcomeSkip:
		label = skipStyle.Render(label)
	default:
		label = failStyle.Render(label)
	}
	line := label + " " + run.Name
	if run.Outcome.Status != gate.OutcomePass {
		first, _, _ := strings.Cut(run.Outcome.Message, "\n")
		line += dimStyle.Render("  " + first)
	}
	if run.Final && run.Outcome.Status == gate.OutcomeFail && !run.Counted {
		line += dimStyle.Render(" (not enforced)")
	}
	return line
}

func summarizeChanged(changed []string) string {
	if len(changed) <= maxChangedShown {
		return strings.Join(changed, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(changed[:maxChangedShown], ", "), len(changed)-maxChangedShown)
}
