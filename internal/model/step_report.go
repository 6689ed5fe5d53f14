package model

import (
	"time"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// Outcome is the terminal status of one step in a run.
type Outcome string

const (
	// OutcomePending marks a step the runner has not reached yet.
	OutcomePending Outcome = "pending"
	// OutcomeRunning marks the step currently executing.
	OutcomeRunning Outcome = "running"
	// OutcomeSkipped means the probe reported the resource converged.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeApplied means the action ran and succeeded.
	OutcomeApplied Outcome = "applied"
	// OutcomeFailed means the probe or the action failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeWouldApply is reported by dry runs for absent resources.
	OutcomeWouldApply Outcome = "would_apply"
)

// IsTerminal reports whether the outcome is final.
func (o Outcome) IsTerminal() bool {
	switch o {
	case OutcomeSkipped, OutcomeApplied, OutcomeFailed, OutcomeWouldApply:
		return true
	}
	return false
}

// StepReport records what happened to one step.
type StepReport struct {
	Resource    resource.ID   `json:"-" yaml:"-"`
	ResourceID  string        `json:"resource" yaml:"resource"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Outcome     Outcome       `json:"outcome" yaml:"outcome"`
	Fatal       bool          `json:"fatal" yaml:"fatal"`
	Detail      string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Diff        string        `json:"diff,omitempty" yaml:"diff,omitempty"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration"`

	Err error `json:"-" yaml:"-"`
}

// IsFailure returns true when the step failed.
func (r StepReport) IsFailure() bool {
	return r.Outcome == OutcomeFailed
}

// PlanReport groups the step reports of one plan in execution order.
type PlanReport struct {
	Name    string       `json:"name" yaml:"name"`
	Steps   []StepReport `json:"steps" yaml:"steps"`
	Aborted bool         `json:"aborted" yaml:"aborted"`

	// NotRun is set when an earlier plan aborted the run.
	NotRun bool `json:"not_run,omitempty" yaml:"not_run,omitempty"`
}
