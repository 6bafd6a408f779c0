package watch

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_Lifecycle(t *testing.T) {
	m := NewModel(1)
	m.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	assert.Contains(t, m.View(), "waiting for first evaluation")

	m = update(t, m, startedMsg{changed: []string{"src/Cart.php"}})
	assert.True(t, m.running)
	assert.Contains(t, m.View(), "evaluating")
	assert.Contains(t, m.View(), "src/Cart.php")

	res := &gate.PhaseResult{
		Phase: 1,
		Runs: []gate.CheckRun{
			{Name: "composer.json present", Outcome: gate.Pass("found")},
			{Name: "coding standards", Outcome: gate.Fail("exit status 1\nmore"), Counted: true},
			{Name: "marker comments", Final: true, Outcome: gate.Fail("2 marker comment(s)")},
		},
		Status: gate.NewGateStatus(1, 1, time.Now()),
	}
	m = update(t, m, finishedMsg{ev: Event{Result: res}})
	assert.False(t, m.running)

	view := m.View()
	assert.Contains(t, view, "quality gates · phase 1")
	assert.Contains(t, view, "composer.json present")
	assert.Contains(t, view, "exit status 1")
	assert.NotContains(t, view, "more")
	assert.Contains(t, view, "(not enforced)")
	assert.Contains(t, view, "FAILED")
	assert.Contains(t, view, "runs: 1")
	assert.Contains(t, view, "09:30:00")
}

func TestModel_Error(t *testing.T) {
	m := update(t, NewModel(0), finishedMsg{ev: Event{Err: errors.New("configuration error: boom")}})
	assert.Contains(t, m.View(), "configuration error: boom")
}

func TestModel_Quit(t *testing.T) {
	next, cmd := NewModel(0).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func TestSummarizeChanged(t *testing.T) {
	assert.Equal(t, "a, b", summarizeChanged([]string{"a", "b"}))
	assert.Equal(t, "a, b, c, d, e and 2 more", summarizeChanged([]string{"a", "b", "c", "d", "e", "f", "g"}))
}
