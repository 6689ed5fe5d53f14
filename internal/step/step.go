// Package step pairs a probe with the action that converges the same
// resource.
package step

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/relayprov/internal/action"
	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/probe"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// ErrNotConverged is returned when a verified step still probes absent
// after its action succeeded.
var ErrNotConverged = errors.New("resource not converged after apply")

// ErrIdentityMismatch is returned by Validate when the probe and the action
// name different resources.
var ErrIdentityMismatch = errors.New("probe and action target different resources")

// Step is one probe/action pair. Fatal is declared at construction time and
// decides whether a failure aborts the run.
type Step struct {
	Description string
	Probe       probe.Probe
	Action      action.Action
	Fatal       bool

	// Verify re-probes after a successful apply.
	Verify bool
}

// Result is what Run produced.
type Result struct {
	Outcome model.Outcome
	Err     error
	Detail  string
	Diff    string
}

// New builds a fatal step.
func New(description string, p probe.Probe, a action.Action) *Step {
	return &Step{Description: description, Probe: p, Action: a, Fatal: true}
}

// NonFatal builds a step whose failure is logged and the run continues.
func NonFatal(description string, p probe.Probe, a action.Action) *Step {
	return &Step{Description: description, Probe: p, Action: a}
}

// Verified turns on post-apply verification and returns the step.
func (s *Step) Verified() *Step {
	s.Verify = true
	return s
}

// Resource returns the identity the step converges.
func (s *Step) Resource() resource.ID {
	if s.Probe != nil {
		return s.Probe.Resource()
	}
	if s.Action != nil {
		return s.Action.Resource()
	}
	return resource.ID{}
}

// Validate checks the step is runnable and that both halves share one
// resource identity.
func (s *Step) Validate() error {
	if s.Probe == nil {
		return errors.New("step has no probe")
	}
	if s.Action == nil {
		return fmt.Errorf("step %s has no action", s.Probe.Resource())
	}
	p, a := s.Probe.Resource(), s.Action.Resource()
	if err := p.Validate(); err != nil {
		return err
	}
	if p != a {
		return fmt.Errorf("%w: probe %s, action %s", ErrIdentityMismatch, p, a)
	}
	return nil
}

// Run probes the resource and applies the action only when it is absent.
// In dry-run mode nothing is applied and absent resources report
// would_apply. A step never retries.
func (s *Step) Run(ctx context.Context, dryRun bool) Result {
	res := s.Probe.Check(ctx)

	switch res.State {
	case model.StatePresent:
		return Result{Outcome: model.OutcomeSkipped, Detail: res.Reason}
	case model.StateAbsent:
	default:
		return Result{Outcome: model.OutcomeFailed, Err: probeError(s.Probe.Resource(), res), Detail: res.Reason}
	}

	if dryRun {
		return Result{Outcome: model.OutcomeWouldApply, Detail: res.Reason, Diff: res.Diff}
	}

	if err := s.Action.Apply(ctx); err != nil {
		return Result{Outcome: model.OutcomeFailed, Err: err, Detail: res.Reason, Diff: res.Diff}
	}

	if s.Verify {
		after := s.Probe.Check(ctx)
		switch after.State {
		case model.StatePresent:
		case model.StateAbsent:
			return Result{
				Outcome: model.OutcomeFailed,
				Err:     fmt.Errorf("%s: %w: %s", s.Probe.Resource(), ErrNotConverged, after.Reason),
				Detail:  after.Reason,
				Diff:    res.Diff,
			}
		default:
			return Result{Outcome: model.OutcomeFailed, Err: probeError(s.Probe.Resource(), after), Detail: after.Reason}
		}
	}

	return Result{Outcome: model.OutcomeApplied, Detail: res.Reason, Diff: res.Diff}
}

func probeError(id resource.ID, res model.ProbeResult) error {
	var pe *probe.Error
	if errors.As(res.Err, &pe) {
		return pe
	}
	err := res.Err
	if err == nil {
		err = fmt.Errorf("invalid probe state %q", res.State)
	}
	return &probe.Error{Resource: id, Err: err}
}
