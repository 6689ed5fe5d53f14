package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/runner"
	"github.com/alexisbeaulieu97/relayprov/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return m.handleEvent(msg.Event)
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.maxRows = msg.Height - 10
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if !m.cancelled && m.onCancel != nil {
				m.onCancel()
			}
			m.cancelled = true
			return m, nil
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleEvent(e runner.Event) (tea.Model, tea.Cmd) {
	switch ev := e.(type) {
	case runner.RunStarted:
		m.runID = ev.RunID
		m.dryRun = ev.DryRun
		m.total = ev.Steps
	case runner.PlanStarted:
		m.plan = ev.Plan
	case runner.PlanSkipped:
		m.notRun = append(m.notRun, ev.Plan)
	case runner.StepStarted:
		m.entries = append(m.entries, components.StepEntry{
			Plan:        ev.Plan,
			Index:       ev.Index,
			Resource:    ev.Resource.String(),
			Description: ev.Description,
			Outcome:     model.OutcomeRunning,
		})
	case runner.StepFinished:
		entry := components.StepEntry{
			Plan:        ev.Plan,
			Index:       ev.Index,
			Resource:    ev.Report.ResourceID,
			Description: ev.Report.Description,
			Outcome:     ev.Report.Outcome,
			Fatal:       ev.Report.Fatal,
			Error:       ev.Report.Error,
		}
		if i := m.findEntry(ev.Plan, ev.Index); i >= 0 {
			if !m.entries[i].Outcome.IsTerminal() && entry.Outcome.IsTerminal() {
				m.completed++
			}
			m.entries[i] = entry
		} else {
			m.entries = append(m.entries, entry)
			if entry.Outcome.IsTerminal() {
				m.completed++
			}
		}
	case runner.RunFinished:
		m.report = ev.Report
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}
