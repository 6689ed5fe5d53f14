package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(m.title()))

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	list := components.NewStepList(m.entries)
	entries := list.Entries()
	if !m.finished && m.maxRows > 0 {
		entries = list.Tail(m.maxRows)
	}
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Steps"), m.renderEntries(entries))
	}

	data := components.SummaryData{
		Total:       m.total,
		Completed:   m.completed,
		Finished:    m.finished,
		Cancelled:   m.cancelled,
		DryRun:      m.dryRun,
		SkippedPlan: m.notRun,
	}
	if m.report != nil {
		data.Status = m.report.Status
		data.ExitCode = m.report.ExitCode()
		data.Counts = m.report.Counts()
	}
	summary := components.NewSummary(data).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderEntries(entries []components.StepEntry) string {
	var lines []string
	current := ""
	for _, entry := range entries {
		if entry.Plan != current {
			current = entry.Plan
			lines = append(lines, pendingStyle.Render(current))
		}
		icon := StatusIcon(entry.Outcome)
		if entry.Outcome == model.OutcomeRunning {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf(" %s %s", icon, entry.Resource)
		if entry.Description != "" {
			line = fmt.Sprintf("%s: %s", line, entry.Description)
		}
		lines = append(lines, line)
		if entry.Outcome == model.OutcomeFailed && entry.Error != "" {
			first, _, _ := strings.Cut(entry.Error, "\n")
			lines = append(lines, "     "+failureStyle.Render(first))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	title := "relayprov"
	if m.profile != "" {
		title += " • " + m.profile
	}
	if m.dryRun {
		title += " (dry run)"
	}
	return title
}

// StatusIcon returns the glyph representing a step outcome.
func StatusIcon(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeApplied:
		return appliedStyle.Render("✓")
	case model.OutcomeRunning:
		return runningStyle.Render("⏳")
	case model.OutcomeFailed:
		return failureStyle.Render("✗")
	case model.OutcomeSkipped:
		return skippedStyle.Render("⊘")
	case model.OutcomeWouldApply:
		return wouldStyle.Render("✱")
	default:
		return pendingStyle.Render("…")
	}
}
