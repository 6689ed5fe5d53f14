package components

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
)

// SummaryData aggregates counts for rendering summaries.
type SummaryData struct {
	Total       int
	Completed   int
	Finished    bool
	Cancelled   bool
	DryRun      bool
	Status      model.RunStatus
	ExitCode    int
	Counts      map[model.Outcome]int
	SkippedPlan []string
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", s.data.Completed, s.data.Total))
	}

	if counts := s.countsLine(); counts != "" {
		lines = append(lines, counts)
	}

	if len(s.data.SkippedPlan) > 0 {
		lines = append(lines, "Not run: "+strings.Join(s.data.SkippedPlan, ", "))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Finished && s.data.Status != "":
		verb := "Run"
		if s.data.DryRun {
			verb = "Dry run"
		}
		lines = append(lines, fmt.Sprintf("%s %s (exit %d)", verb, strings.ReplaceAll(string(s.data.Status), "_", " "), s.data.ExitCode))
	}

	return strings.Join(lines, "\n")
}

func (s Summary) countsLine() string {
	order := []model.Outcome{model.OutcomeApplied, model.OutcomeSkipped, model.OutcomeWouldApply, model.OutcomeFailed}
	var parts []string
	for _, o := range order {
		if n := s.data.Counts[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ReplaceAll(string(o), "_", " "), n))
		}
	}
	return strings.Join(parts, " · ")
}
