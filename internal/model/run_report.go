package model

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrReportFinalized is returned when a finished report is mutated.
var ErrReportFinalized = errors.New("run report is finalized")

// RunStatus summarises a whole run.
type RunStatus string

const (
	RunSucceeded             RunStatus = "succeeded"
	RunCompletedWithWarnings RunStatus = "completed_with_warnings"
	RunAborted               RunStatus = "aborted"
)

// Exit codes surfaced by the CLI.
const (
	ExitOK         = 0
	ExitAborted    = 1
	ExitValidation = 2
	ExitWarnings   = 3
)

// RunReport accumulates step outcomes during a run. It is appended to while
// the runner executes and becomes read-only once Finish is called. Plan and
// step records are only handed out as copies, so observers holding the
// report cannot rewrite what happened.
type RunReport struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Profile  string    `json:"profile,omitempty" yaml:"profile,omitempty"`
	DryRun   bool      `json:"dry_run" yaml:"dry_run"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Status   RunStatus `json:"status" yaml:"status"`

	plans     []*PlanReport
	finalized bool
}

// runReportDocument is the serialized form of a RunReport.
type runReportDocument struct {
	RunID    string       `json:"run_id" yaml:"run_id"`
	Profile  string       `json:"profile,omitempty" yaml:"profile,omitempty"`
	DryRun   bool         `json:"dry_run" yaml:"dry_run"`
	Started  time.Time    `json:"started" yaml:"started"`
	Finished time.Time    `json:"finished" yaml:"finished"`
	Status   RunStatus    `json:"status" yaml:"status"`
	Plans    []PlanReport `json:"plans" yaml:"plans"`
}

// NewRunReport starts a report.
func NewRunReport(runID, profile string, dryRun bool, started time.Time) *RunReport {
	return &RunReport{
		RunID:   runID,
		Profile: profile,
		DryRun:  dryRun,
		Started: started,
		plans:   make([]*PlanReport, 0),
	}
}

// Plans returns a copy of the plan sections in execution order.
func (r *RunReport) Plans() []PlanReport {
	out := make([]PlanReport, len(r.plans))
	for i, p := range r.plans {
		out[i] = *p
		out[i].Steps = make([]StepReport, len(p.Steps))
		copy(out[i].Steps, p.Steps)
	}
	return out
}

func (r *RunReport) document() runReportDocument {
	return runReportDocument{
		RunID:    r.RunID,
		Profile:  r.Profile,
		DryRun:   r.DryRun,
		Started:  r.Started,
		Finished: r.Finished,
		Status:   r.Status,
		Plans:    r.Plans(),
	}
}

// MarshalJSON implements json.Marshaler.
func (r *RunReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.document())
}

// MarshalYAML implements yaml.Marshaler.
func (r *RunReport) MarshalYAML() (any, error) {
	return r.document(), nil
}

// BeginPlan opens a new plan section; subsequent Record calls append to it.
func (r *RunReport) BeginPlan(name string) error {
	if r.finalized {
		return ErrReportFinalized
	}
	r.plans = append(r.plans, &PlanReport{Name: name, Steps: make([]StepReport, 0)})
	return nil
}

// SkipPlan records a plan that never started because the run aborted.
func (r *RunReport) SkipPlan(name string) error {
	if r.finalized {
		return ErrReportFinalized
	}
	r.plans = append(r.plans, &PlanReport{Name: name, Steps: make([]StepReport, 0), NotRun: true})
	return nil
}

// Record appends a step report to the current plan.
func (r *RunReport) Record(step StepReport) error {
	if r.finalized {
		return ErrReportFinalized
	}
	current := r.current()
	if current == nil {
		return errors.New("run report has no open plan")
	}
	if step.ResourceID == "" && !step.Resource.IsZero() {
		step.ResourceID = step.Resource.String()
	}
	if step.Error == "" && step.Err != nil {
		step.Error = step.Err.Error()
	}
	current.Steps = append(current.Steps, step)
	return nil
}

// Abort marks the current plan as aborted by a fatal failure.
func (r *RunReport) Abort() error {
	if r.finalized {
		return ErrReportFinalized
	}
	current := r.current()
	if current == nil {
		return errors.New("run report has no open plan")
	}
	current.Aborted = true
	return nil
}

// Finish stamps the end time, computes the status and freezes the report.
func (r *RunReport) Finish(now time.Time) {
	if r.finalized {
		return
	}
	r.Finished = now
	r.Status = r.computeStatus()
	r.finalized = true
}

// Finalized reports whether Finish has been called.
func (r *RunReport) Finalized() bool {
	return r.finalized
}

// Aborted reports whether any plan aborted on a fatal failure.
func (r *RunReport) Aborted() bool {
	for _, p := range r.plans {
		if p.Aborted {
			return true
		}
	}
	return false
}

// ExitCode maps the run status to the CLI exit code.
func (r *RunReport) ExitCode() int {
	switch r.computeStatus() {
	case RunAborted:
		return ExitAborted
	case RunCompletedWithWarnings:
		return ExitWarnings
	default:
		return ExitOK
	}
}

// Steps flattens step reports across plans in execution order.
func (r *RunReport) Steps() []StepReport {
	var out []StepReport
	for _, p := range r.plans {
		out = append(out, p.Steps...)
	}
	return out
}

// Counts tallies outcomes across the run.
func (r *RunReport) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, s := range r.Steps() {
		counts[s.Outcome]++
	}
	return counts
}

// Duration is the wall time of a finished run.
func (r *RunReport) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

func (r *RunReport) current() *PlanReport {
	if len(r.plans) == 0 {
		return nil
	}
	last := r.plans[len(r.plans)-1]
	if last.NotRun {
		return nil
	}
	return last
}

func (r *RunReport) computeStatus() RunStatus {
	if r.Aborted() {
		return RunAborted
	}
	for _, s := range r.Steps() {
		if s.IsFailure() {
			return RunCompletedWithWarnings
		}
	}
	return RunSucceeded
}
