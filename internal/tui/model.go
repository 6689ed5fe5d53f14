// Package tui renders run progress in interactive terminals.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/runner"
	"github.com/alexisbeaulieu97/relayprov/internal/tui/components"
)

// EventMsg carries a runner event into the program.
type EventMsg struct {
	Event runner.Event
}

// Model contains the Bubbletea state for a provisioning run.
type Model struct {
	profile   string
	runID     string
	dryRun    bool
	plan      string
	entries   []components.StepEntry
	notRun    []string
	total     int
	completed int
	finished  bool
	cancelled bool
	report    *model.RunReport
	maxRows   int
	spinner   spinner.Model
	onCancel  func()
}

// NewModel constructs a model. onCancel is invoked once when the operator
// presses ctrl+c; the runner stops before its next step.
func NewModel(profile string, onCancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return Model{
		profile:  profile,
		entries:  make([]components.StepEntry, 0),
		spinner:  s,
		onCancel: onCancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// TotalSteps returns the total number of steps announced by the runner.
func (m Model) TotalSteps() int {
	return m.total
}

// CompletedSteps returns the number of steps with a terminal outcome.
func (m Model) CompletedSteps() int {
	return m.completed
}

// IsFinished reports whether the run has ended.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the operator interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Report returns the final report once the run finished.
func (m Model) Report() *model.RunReport {
	return m.report
}

// Observer forwards runner events to a running program.
func Observer(p *tea.Program) runner.Observer {
	return runner.ObserverFunc(func(e runner.Event) {
		p.Send(EventMsg{Event: e})
	})
}

func (m *Model) findEntry(plan string, index int) int {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Plan == plan && m.entries[i].Index == index {
			return i
		}
	}
	return -1
}
