// Package report renders finished run reports for operators and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml (and yml).
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", raw)
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *model.RunReport, format Format) error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatTable, "":
		return writeTable(w, r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteFile saves r to path. The format follows the extension: .yaml and
// .yml produce YAML, anything else JSON.
func WriteFile(path string, r *model.RunReport) error {
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, r *model.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, r *model.RunReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

type styles struct {
	header  lipgloss.Style
	plan    lipgloss.Style
	applied lipgloss.Style
	skipped lipgloss.Style
	failed  lipgloss.Style
	would   lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	re := lipgloss.NewRenderer(w)
	return styles{
		header:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		plan:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		applied: re.NewStyle().Foreground(lipgloss.Color("42")),
		skipped: re.NewStyle().Foreground(lipgloss.Color("244")),
		failed:  re.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		would:   re.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   re.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Label is the short verb printed for an outcome.
func Label(o model.Outcome) string {
	switch o {
	case model.OutcomeSkipped:
		return "skip"
	case model.OutcomeApplied:
		return "apply"
	case model.OutcomeFailed:
		return "fail"
	case model.OutcomeWouldApply:
		return "would apply"
	}
	return string(o)
}

func (s styles) outcome(o model.Outcome) lipgloss.Style {
	switch o {
	case model.OutcomeApplied:
		return s.applied
	case model.OutcomeFailed:
		return s.failed
	case model.OutcomeWouldApply:
		return s.would
	}
	return s.skipped
}

func writeTable(w io.Writer, r *model.RunReport) error {
	st := newStyles(w)
	var b strings.Builder

	title := fmt.Sprintf("relayprov run %s", r.RunID)
	if r.Profile != "" {
		title += " (" + r.Profile + ")"
	}
	if r.DryRun {
		title += " [dry-run]"
	}
	b.WriteString(st.header.Render(title))
	b.WriteString("\n")

	for _, p := range r.Plans() {
		name := p.Name
		switch {
		case p.NotRun:
			name += " (not run)"
		case p.Aborted:
			name += " (aborted)"
		}
		b.WriteString(st.plan.Render("== " + name))
		b.WriteString("\n")

		for _, s := range p.Steps {
			label := fmt.Sprintf("%-11s", Label(s.Outcome))
			line := fmt.Sprintf("  %s %s", st.outcome(s.Outcome).Render(label), s.ResourceID)
			if s.Description != "" {
				line += st.muted.Render("  " + s.Description)
			}
			if !s.Fatal {
				line += st.muted.Render(" (non-fatal)")
			}
			b.WriteString(line)
			b.WriteString("\n")
			if s.IsFailure() && s.Error != "" {
				for _, errLine := range strings.Split(strings.TrimRight(s.Error, "\n"), "\n") {
					b.WriteString("      ")
					b.WriteString(st.failed.Render(errLine))
					b.WriteString("\n")
				}
			}
		}
	}

	b.WriteString(summaryLine(r))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func summaryLine(r *model.RunReport) string {
	counts := r.Counts()
	keys := make([]string, 0, len(counts))
	for o := range counts {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[model.Outcome(k)]))
	}

	status := string(r.Status)
	if status == "" {
		status = "in progress"
	}
	return fmt.Sprintf("status: %s  %s  (%s, exit %d)",
		status, strings.Join(parts, " "), r.Duration().Truncate(time.Millisecond), r.ExitCode())
}
